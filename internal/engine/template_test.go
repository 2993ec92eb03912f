package engine

import (
	"strings"
	"testing"
	"time"
)

func testRenderer() *Renderer {
	r := NewRenderer()
	r.Now = func() time.Time {
		return time.Date(2025, 6, 1, 14, 30, 5, 0, time.UTC)
	}
	r.Intn = func(n int) int { return 0 }
	r.NewUUID = func() string { return "00000000-0000-0000-0000-000000000000" }
	return r
}

func TestRenderIdempotentWithoutTokens(t *testing.T) {
	r := testRenderer()
	inputs := []string{
		"plain text",
		"",
		"braces { but no token }",
		"{not.a.token}",
	}
	for _, input := range inputs {
		if got := r.Render(input, messageEvent("hi")); got != input {
			t.Errorf("Render(%q) = %q, want input unchanged", input, got)
		}
	}
}

func TestRenderUserAndChannelTokens(t *testing.T) {
	r := testRenderer()
	event := messageEvent("hello world")

	got := r.Render("Hi {user.mention} ({user.name}/{user.display_name}) in {channel.mention}", event)
	want := "Hi <@user-1> (alex/Alex) in <#chan-1>"
	if got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
}

func TestRenderServerAndMessageTokens(t *testing.T) {
	r := testRenderer()
	event := messageEvent("the content")

	got := r.Render("{server.name} has {server.member_count} members; see {message.link}", event)
	if !strings.Contains(got, "Test Guild has 42 members") {
		t.Errorf("server tokens not resolved: %q", got)
	}
	if !strings.Contains(got, "https://discord.com/channels/guild-1/chan-1/msg-1") {
		t.Errorf("message link not resolved: %q", got)
	}

	if r.Render("{message.content}", event) != "the content" {
		t.Error("message.content not resolved")
	}
}

func TestRenderTriggerTokensUseRenderTime(t *testing.T) {
	r := testRenderer()
	got := r.Render("{trigger.date} {trigger.time}", messageEvent("x"))
	if got != "2025-06-01 14:30:05" {
		t.Fatalf("Render() = %q", got)
	}
}

func TestRenderRandomTokens(t *testing.T) {
	r := testRenderer()
	event := messageEvent("x")

	if got := r.Render("{random.number}", event); got != "1" {
		t.Errorf("random.number with Intn=0 should render 1, got %q", got)
	}
	if got := r.Render("{random.uuid}", event); got != "00000000-0000-0000-0000-000000000000" {
		t.Errorf("random.uuid not resolved: %q", got)
	}
	if got := r.Render("{random.choice:red,green,blue}", event); got != "red" {
		t.Errorf("random.choice with Intn=0 should pick first option, got %q", got)
	}

	r.Intn = func(n int) int { return n - 1 }
	if got := r.Render("{random.choice:red,green,blue}", event); got != "blue" {
		t.Errorf("random.choice with Intn=n-1 should pick last option, got %q", got)
	}
}

func TestRenderUnknownTokensLeftVerbatim(t *testing.T) {
	r := testRenderer()
	inputs := []string{
		"{user.unknown_field}",
		"{mystery.id}",
		"{random.choice:}",
	}
	for _, input := range inputs {
		if got := r.Render(input, messageEvent("x")); got != input {
			t.Errorf("Render(%q) = %q, want verbatim", input, got)
		}
	}
}

func TestRenderMixedRecognizedAndUnknown(t *testing.T) {
	r := testRenderer()
	got := r.Render("{user.id} and {bogus.token}", messageEvent("x"))
	if got != "user-1 and {bogus.token}" {
		t.Fatalf("Render() = %q", got)
	}
}
