package utils

import (
	"context"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00:00"},
		{45 * time.Second, "0:00:45"},
		{90 * time.Second, "0:01:30"},
		{time.Hour + 5*time.Minute + 3*time.Second, "1:05:03"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.d); got != c.want {
			t.Fatalf("FormatDuration(%v) = %s, want %s", c.d, got, c.want)
		}
	}
}

func TestUserMentions(t *testing.T) {
	if got := FormatUserMention("123"); got != "<@123>" {
		t.Fatalf("FormatUserMention = %s", got)
	}
	for _, mention := range []string{"<@123>", "<@!123>"} {
		if !IsUserMention(mention) {
			t.Fatalf("%s should be a user mention", mention)
		}
		if got := ExtractUserIDFromMention(mention); got != "123" {
			t.Fatalf("ExtractUserIDFromMention(%s) = %s", mention, got)
		}
	}
	if IsUserMention("plain") {
		t.Fatalf("plain text is not a mention")
	}
}

func TestRoleMentions(t *testing.T) {
	if !IsRoleMention("<@&456>") {
		t.Fatalf("<@&456> should be a role mention")
	}
	if got := ExtractRoleIDFromMention("<@&456>"); got != "456" {
		t.Fatalf("ExtractRoleIDFromMention = %s", got)
	}
}

func TestAfterFuncRuns(t *testing.T) {
	done := make(chan struct{})
	AfterFunc(context.Background(), 10*time.Millisecond, func() {
		close(done)
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("callback never ran")
	}
}

func TestAfterFuncCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fired := make(chan struct{}, 1)
	AfterFunc(ctx, 50*time.Millisecond, func() {
		fired <- struct{}{}
	})
	cancel()
	select {
	case <-fired:
		t.Fatalf("cancelled callback still ran")
	case <-time.After(150 * time.Millisecond):
	}
}
