package discord

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"layeh.com/gopus"

	"vcwarden/internal/session"
)

const (
	sampleRate     = 48000
	channels       = 2
	frameSize      = 960 // 20ms at 48kHz
	rmsThreshold   = 250.0
	startFrames    = 3
	speechHangover = 400 * time.Millisecond
)

// voiceListener receives a channel's opus stream and turns per-user energy
// into speech start and stop events on the session.
type voiceListener struct {
	sess *session.Session
	vc   *discordgo.VoiceConnection

	mu        sync.Mutex
	ssrcUsers map[uint32]string
	detectors map[uint32]*speechDetector

	done chan struct{}
}

// startListener joins the session's voice channel and begins decoding.
func (b *Bot) startListener(sess *session.Session) error {
	vc, err := b.session.ChannelVoiceJoin(sess.GuildID, sess.ChannelID, true, false)
	if err != nil {
		return err
	}
	l := &voiceListener{
		sess:      sess,
		vc:        vc,
		ssrcUsers: make(map[uint32]string),
		detectors: make(map[uint32]*speechDetector),
		done:      make(chan struct{}),
	}
	vc.AddHandler(l.speakingUpdate)
	go l.receive()
	go l.sweep()
	b.listeners[sess.GuildID] = l
	return nil
}

func (b *Bot) stopListener(guildID string) {
	l, ok := b.listeners[guildID]
	if !ok {
		return
	}
	delete(b.listeners, guildID)
	close(l.done)
	if err := l.vc.Disconnect(); err != nil {
		log.Printf("Error disconnecting voice in guild %s: %v", guildID, err)
	}
}

// speakingUpdate maps SSRCs to user IDs as the gateway announces them.
func (l *voiceListener) speakingUpdate(vc *discordgo.VoiceConnection, vs *discordgo.VoiceSpeakingUpdate) {
	l.mu.Lock()
	l.ssrcUsers[uint32(vs.SSRC)] = vs.UserID
	l.mu.Unlock()
}

func (l *voiceListener) receive() {
	decoders := make(map[uint32]*gopus.Decoder)
	for {
		select {
		case <-l.done:
			return
		case pkt, ok := <-l.vc.OpusRecv:
			if !ok {
				return
			}
			dec := decoders[pkt.SSRC]
			if dec == nil {
				var err error
				dec, err = gopus.NewDecoder(sampleRate, channels)
				if err != nil {
					log.Printf("Error creating opus decoder: %v", err)
					continue
				}
				decoders[pkt.SSRC] = dec
			}
			pcm, err := dec.Decode(pkt.Opus, frameSize, false)
			if err != nil {
				continue
			}
			l.feed(pkt.SSRC, rms(pcm))
		}
	}
}

func (l *voiceListener) feed(ssrc uint32, energy float64) {
	now := time.Now()
	l.mu.Lock()
	userID := l.ssrcUsers[ssrc]
	det := l.detectors[ssrc]
	if det == nil {
		det = &speechDetector{}
		l.detectors[ssrc] = det
	}
	started := det.Feed(energy, now)
	l.mu.Unlock()

	if started && userID != "" {
		speechEdges.Inc()
		l.sess.HandleSpeechStart(userID)
	}
}

// sweep closes speaking intervals for users whose packets stopped arriving.
func (l *voiceListener) sweep() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			now := time.Now()
			var stopped []string
			l.mu.Lock()
			for ssrc, det := range l.detectors {
				if det.Sweep(now) {
					if userID := l.ssrcUsers[ssrc]; userID != "" {
						stopped = append(stopped, userID)
					}
				}
			}
			l.mu.Unlock()
			for _, userID := range stopped {
				speechEdges.Inc()
				l.sess.HandleSpeechStop(userID)
			}
		}
	}
}

// speechDetector smooths raw frame energy into speech edges: a few loud
// frames in a row open an interval, a hangover of silence closes it.
type speechDetector struct {
	speaking   bool
	consec     int
	lastPacket time.Time
}

// Feed processes one decoded frame and reports a speech start edge.
func (d *speechDetector) Feed(energy float64, now time.Time) bool {
	d.lastPacket = now
	if energy < rmsThreshold {
		d.consec = 0
		return false
	}
	d.consec++
	if !d.speaking && d.consec >= startFrames {
		d.speaking = true
		return true
	}
	return false
}

// Sweep reports a speech stop edge once the hangover has elapsed with no
// packets.
func (d *speechDetector) Sweep(now time.Time) bool {
	if d.speaking && now.Sub(d.lastPacket) >= speechHangover {
		d.speaking = false
		d.consec = 0
		return true
	}
	return false
}

func rms(pcm []int16) float64 {
	if len(pcm) == 0 {
		return 0
	}
	var sum float64
	for _, s := range pcm {
		f := float64(s)
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(pcm)))
}
