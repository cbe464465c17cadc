package discord

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"vcwarden/internal/database"
	"vcwarden/internal/models"
	"vcwarden/internal/session"
	"vcwarden/pkg/utils"
)

// Bot represents the Discord bot
type Bot struct {
	session    *discordgo.Session
	repository *database.Repository
	registry   *session.Registry
	prefix     string

	listeners map[string]*voiceListener // key: guildID
}

// New creates a new Discord bot
func New(token, prefix string, repository *database.Repository, registry *session.Registry) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentMessageContent

	bot := &Bot{
		session:    s,
		repository: repository,
		registry:   registry,
		prefix:     prefix,
		listeners:  make(map[string]*voiceListener),
	}

	s.AddHandler(bot.guildCreate)
	s.AddHandler(bot.voiceStateUpdate)
	s.AddHandler(bot.messageCreate)

	return bot, nil
}

// Start starts the bot
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	fmt.Println("✅ Bot is running...")
	return nil
}

// Stop tears down every session and closes the gateway connection.
func (b *Bot) Stop() error {
	for guildID := range b.listeners {
		b.stopListener(guildID)
	}
	b.registry.CloseAll()
	return b.session.Close()
}

// Registry exposes the session registry, for the dashboard.
func (b *Bot) Registry() *session.Registry {
	return b.registry
}

// guildCreate seeds default settings for guilds the bot can see.
func (b *Bot) guildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if err := b.repository.EnsureGuild(g.ID); err != nil {
		log.Printf("Error seeding settings for guild %s: %v", g.ID, err)
	}
}

// voiceStateUpdate maps gateway voice state changes onto session events.
func (b *Bot) voiceStateUpdate(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
	if vs.UserID == s.State.User.ID {
		return
	}
	sess, ok := b.registry.Get(vs.GuildID)
	if !ok {
		return
	}

	canSpeak := !(vs.Mute || vs.SelfMute)
	canListen := !(vs.Deaf || vs.SelfDeaf)

	before := vs.BeforeUpdate
	wasIn := before != nil && before.ChannelID == sess.ChannelID
	isIn := vs.ChannelID == sess.ChannelID

	switch {
	case isIn && !wasIn:
		sess.HandleJoin(vs.UserID, canSpeak, canListen)
	case wasIn && !isIn:
		sess.HandleLeave(vs.UserID)
	case isIn:
		if wasSpeak := !(before.Mute || before.SelfMute); wasSpeak != canSpeak {
			sess.HandleSpeakable(vs.UserID, canSpeak)
		}
		if wasListen := !(before.Deaf || before.SelfDeaf); wasListen != canListen {
			sess.HandleListenable(vs.UserID, canListen)
		}
	}
}

// messageCreate handles message creation events
func (b *Bot) messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.Bot || m.GuildID == "" {
		return
	}

	content := strings.TrimSpace(m.Content)
	if !strings.HasPrefix(content, b.prefix) {
		return
	}
	args := strings.Fields(strings.TrimPrefix(content, b.prefix))
	if len(args) == 0 {
		return
	}

	switch args[0] {
	case "vc":
		if len(args) < 2 {
			b.reply(m, b.usage())
			return
		}
		b.handleModCommand(s, m, args[1], args[2:])
	case "next":
		b.handleNextCommand(m)
	case "wait":
		b.handleWaitCommand(m)
	}
	commandsHandled.Inc()
}

func (b *Bot) handleModCommand(s *discordgo.Session, m *discordgo.MessageCreate, sub string, args []string) {
	if !b.authorized(s, m) {
		b.reply(m, "You need the moderator role to do that.")
		return
	}
	switch sub {
	case "join":
		b.handleJoinCommand(s, m, args)
	case "switch":
		b.handleSwitchCommand(m, args)
	case "leave":
		b.handleLeaveCommand(m)
	case "status":
		b.handleStatusCommand(m)
	case "role":
		if !b.isOwner(s, m) {
			b.reply(m, "Only the server owner can set the moderator role.")
			return
		}
		b.handleRoleCommand(m, args)
	case "config":
		b.handleConfigCommand(m, args)
	default:
		b.reply(m, b.usage())
	}
}

func (b *Bot) usage() string {
	p := b.prefix
	return strings.Join([]string{
		"Commands:",
		p + "vc join <floor|circle|stage> [@speaker]",
		p + "vc switch <floor|circle|stage|idle> [@speaker]",
		p + "vc leave",
		p + "vc status",
		p + "vc role @role",
		p + "vc config [<floor|circle> <vote|result|turn|extension|pause|jail> <seconds>]",
		p + "next (head of queue only)",
		p + "wait",
	}, "\n")
}

// authorized checks the configured moderator role; with no role set, anyone
// may run moderator commands.
func (b *Bot) authorized(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	settings, err := b.repository.GetGuildSettings(m.GuildID)
	if err != nil {
		log.Printf("Error loading settings for guild %s: %v", m.GuildID, err)
		return false
	}
	if settings.RoleID == "" {
		return true
	}
	member := m.Member
	if member == nil {
		member, err = s.GuildMember(m.GuildID, m.Author.ID)
		if err != nil {
			log.Printf("Error loading member %s: %v", m.Author.ID, err)
			return false
		}
	}
	for _, roleID := range member.Roles {
		if roleID == settings.RoleID {
			return true
		}
	}
	return false
}

func (b *Bot) isOwner(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	guild, err := s.State.Guild(m.GuildID)
	if err != nil {
		guild, err = s.Guild(m.GuildID)
		if err != nil {
			log.Printf("Error loading guild %s: %v", m.GuildID, err)
			return false
		}
	}
	return guild.OwnerID == m.Author.ID
}

func parseMode(name string) (session.Mode, bool) {
	switch name {
	case "floor":
		return session.ModeFloor, true
	case "circle":
		return session.ModeCircle, true
	case "stage":
		return session.ModeStage, true
	case "idle":
		return session.ModeIdle, true
	}
	return "", false
}

func speakerArg(args []string) string {
	for _, a := range args {
		if utils.IsUserMention(a) {
			return utils.ExtractUserIDFromMention(a)
		}
	}
	return ""
}

// handleJoinCommand creates a session on the author's voice channel and
// starts the requested mode.
func (b *Bot) handleJoinCommand(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if len(args) < 1 {
		b.reply(m, "Format: "+b.prefix+"vc join <floor|circle|stage> [@speaker]")
		return
	}
	mode, ok := parseMode(args[0])
	if !ok || mode == session.ModeIdle {
		b.reply(m, "Unknown mode: "+args[0])
		return
	}

	vs, err := s.State.VoiceState(m.GuildID, m.Author.ID)
	if err != nil || vs == nil || vs.ChannelID == "" {
		b.reply(m, "Join a voice channel first.")
		return
	}

	settings, err := b.repository.GetGuildSettings(m.GuildID)
	if err != nil {
		log.Printf("Error loading settings for guild %s: %v", m.GuildID, err)
		b.reply(m, "Could not load this server's settings.")
		return
	}

	sess := session.New(m.GuildID, vs.ChannelID, settings, session.Ports{
		Ballots:   newBallotCollector(b.session, m.ChannelID),
		Announcer: &channelAnnouncer{session: b.session, channelID: m.ChannelID},
		Muter:     newGuildMuter(b.session, m.GuildID),
	})
	if err := b.registry.Create(sess); err != nil {
		b.reply(m, err.Error())
		return
	}
	b.seedOccupants(s, sess)

	speaker := speakerArg(args[1:])
	if mode == session.ModeStage && speaker == "" {
		speaker = m.Author.ID
	}
	if err := sess.SetMode(mode, speaker); err != nil {
		b.registry.Destroy(m.GuildID)
		b.reply(m, err.Error())
		return
	}

	if err := b.startListener(sess); err != nil {
		log.Printf("Error joining voice channel %s: %v", sess.ChannelID, err)
		b.registry.Destroy(m.GuildID)
		b.reply(m, "Could not join the voice channel.")
		return
	}
	b.reply(m, fmt.Sprintf("Moderating %s in %s mode.",
		utils.FormatChannelMention(sess.ChannelID), mode))
}

// seedOccupants registers everyone already in the session's channel.
func (b *Bot) seedOccupants(s *discordgo.Session, sess *session.Session) {
	guild, err := s.State.Guild(sess.GuildID)
	if err != nil {
		log.Printf("Error loading guild %s from state: %v", sess.GuildID, err)
		return
	}
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != sess.ChannelID || vs.UserID == s.State.User.ID {
			continue
		}
		sess.HandleJoin(vs.UserID, !(vs.Mute || vs.SelfMute), !(vs.Deaf || vs.SelfDeaf))
	}
}

func (b *Bot) handleSwitchCommand(m *discordgo.MessageCreate, args []string) {
	if len(args) < 1 {
		b.reply(m, "Format: "+b.prefix+"vc switch <floor|circle|stage|idle> [@speaker]")
		return
	}
	mode, ok := parseMode(args[0])
	if !ok {
		b.reply(m, "Unknown mode: "+args[0])
		return
	}
	sess, ok := b.registry.Get(m.GuildID)
	if !ok {
		b.reply(m, "No session is running. Use "+b.prefix+"vc join first.")
		return
	}
	speaker := speakerArg(args[1:])
	if mode == session.ModeStage && speaker == "" {
		speaker = m.Author.ID
	}
	if err := sess.SetMode(mode, speaker); err != nil {
		b.reply(m, err.Error())
		return
	}
	b.reply(m, fmt.Sprintf("Switched to %s mode.", mode))
}

func (b *Bot) handleLeaveCommand(m *discordgo.MessageCreate) {
	b.stopListener(m.GuildID)
	if !b.registry.Destroy(m.GuildID) {
		b.reply(m, "No session is running.")
		return
	}
	b.reply(m, "Session ended.")
}

func (b *Bot) handleStatusCommand(m *discordgo.MessageCreate) {
	sess, ok := b.registry.Get(m.GuildID)
	if !ok {
		b.reply(m, "No session is running.")
		return
	}
	embed := statusEmbed(b.session, m.GuildID, sess.Status())
	if _, err := b.session.ChannelMessageSendEmbed(m.ChannelID, embed); err != nil {
		log.Printf("Error sending status embed: %v", err)
	}
}

func (b *Bot) handleRoleCommand(m *discordgo.MessageCreate, args []string) {
	if len(args) < 1 || !utils.IsRoleMention(args[0]) {
		b.reply(m, "Format: "+b.prefix+"vc role @role")
		return
	}
	roleID := utils.ExtractRoleIDFromMention(args[0])
	if err := b.repository.SetRole(m.GuildID, roleID); err != nil {
		log.Printf("Error setting role for guild %s: %v", m.GuildID, err)
		b.reply(m, "Could not save the role.")
		return
	}
	b.reply(m, "Moderator role updated.")
}

func (b *Bot) handleConfigCommand(m *discordgo.MessageCreate, args []string) {
	if _, live := b.registry.Get(m.GuildID); live && len(args) > 0 {
		b.reply(m, "A session is running; end it before changing settings.")
		return
	}
	settings, err := b.repository.GetGuildSettings(m.GuildID)
	if err != nil {
		log.Printf("Error loading settings for guild %s: %v", m.GuildID, err)
		b.reply(m, "Could not load this server's settings.")
		return
	}

	if len(args) == 0 {
		b.reply(m, renderSettings(settings))
		return
	}
	if len(args) != 3 {
		b.reply(m, "Format: "+b.prefix+"vc config <floor|circle> <vote|result|turn|extension|pause|jail> <seconds>")
		return
	}

	seconds, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		b.reply(m, "Seconds must be a number.")
		return
	}
	if !setDuration(&settings, args[0], args[1], seconds) {
		b.reply(m, "Unknown setting: "+args[0]+" "+args[1])
		return
	}
	if err := settings.Validate(); err != nil {
		b.reply(m, err.Error())
		return
	}
	if err := b.repository.UpdateDuration(m.GuildID, args[0]+"_"+args[1], seconds); err != nil {
		log.Printf("Error updating setting for guild %s: %v", m.GuildID, err)
		b.reply(m, "Could not save the setting.")
		return
	}
	b.reply(m, "Setting saved.")
}

// setDuration writes one named duration into the settings copy, for
// validation before the database update.
func setDuration(s *models.GuildSettings, mode, field string, seconds int64) bool {
	var d *models.ModeDurations
	switch mode {
	case "floor":
		d = &s.Floor
	case "circle":
		d = &s.Circle
	default:
		return false
	}
	switch field {
	case "vote":
		d.Vote = seconds
	case "result":
		d.Result = seconds
	case "turn":
		d.Turn = seconds
	case "extension":
		d.Extension = seconds
	case "pause":
		d.Pause = seconds
	case "jail":
		d.Jail = seconds
	default:
		return false
	}
	return true
}

func (b *Bot) handleNextCommand(m *discordgo.MessageCreate) {
	sess, ok := b.registry.Get(m.GuildID)
	if !ok {
		return
	}
	done, err := sess.Next(m.Author.ID)
	if err != nil {
		b.reply(m, err.Error())
		return
	}
	if !done {
		b.reply(m, "Only the current speaker can pass the turn.")
	}
}

func (b *Bot) handleWaitCommand(m *discordgo.MessageCreate) {
	sess, ok := b.registry.Get(m.GuildID)
	if !ok {
		return
	}
	done, err := sess.Wait(m.Author.ID)
	if err != nil {
		b.reply(m, err.Error())
		return
	}
	if !done {
		b.reply(m, "You are not queued, or it is your turn. Use "+b.prefix+"next to pass.")
		return
	}
	b.reply(m, "Moved to the back of the queue.")
}

func (b *Bot) reply(m *discordgo.MessageCreate, text string) {
	if _, err := b.session.ChannelMessageSend(m.ChannelID, text); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}
