package internal

import (
	"fmt"
	"strings"
	"time"
)

// SessionBuilder accumulates role-tagged turns for one thread into
// token-budgeted sessions. One builder per thread; state is never shared.
//
// A session is the not-yet-finalized buffer of turns. AddMessage grows it and
// may close the previous session when the budget is exceeded; Finalize closes
// the current one, carrying trailing non-assistant turns ("orphans") into the
// next session instead of losing them.
type SessionBuilder struct {
	thread     Thread
	identities IdentitySet
	opts       Options
	tok        Tokenizer

	// subject, when set, is injected as a [Subject: ...] tag at the top of
	// each session's opening turn.
	subject string

	turns           []Turn
	runningTokens   int
	subjectInjected bool
	hasAssistant    bool
	firstTurnMs     int64
}

// BuilderForThread selects the builder variant for a thread:
// paired correspondence for mail (sequential merge forced, subject from the
// thread title), narrative timeline for self-authored platforms (knowledge
// mode forced), plain dialogue otherwise.
func BuilderForThread(thread Thread, identities IdentitySet, opts Options, tok Tokenizer) *SessionBuilder {
	b := &SessionBuilder{
		thread:     thread,
		identities: identities,
		opts:       opts.Normalize(),
		tok:        tok,
	}
	if tok == nil {
		b.tok = EstimateTokens
	}
	switch {
	case thread.Platform == PlatformGoogleMail:
		b.opts.MergeSequential = true
		b.subject = thread.Title
	case thread.Platform.SelfAuthored():
		b.opts.KnowledgeMode = true
	}
	return b
}

// AddMessage buffers one message. It returns a completed DatasetEntry when
// adding the message forced the previous session to close, otherwise nil.
//
// The split never fires for a session's first assistant turn: a session is
// not closed before it has produced at least one usable target turn.
func (b *SessionBuilder) AddMessage(content string, role Role, sender string, timestampMs int64, reactionsJSON string) *DatasetEntry {
	var completed *DatasetEntry

	cost := b.costOf(content, role, sender)
	firstAssistant := role == RoleAssistant && !b.hasAssistant
	if len(b.turns) > 0 && b.runningTokens+cost > b.opts.MaxTokensPerSession && !firstAssistant {
		completed = b.Finalize()
	}

	b.push(content, role, sender, timestampMs)

	if b.opts.ImputeReactions && reactionsJSON != "" {
		b.imputeReaction(reactionsJSON, role, timestampMs)
	}

	return completed
}

// costOf computes the token cost the message would add to the current buffer,
// accounting for sequential-merge and subject-tag effects.
func (b *SessionBuilder) costOf(content string, role Role, sender string) int {
	final := b.decorate(content, role, sender, len(b.turns) == 0)
	if b.mergeable(role) {
		return b.tok("\n" + final)
	}
	return b.tok(final) + turnOverheadTokens
}

// push appends (or merges) a turn into the current session buffer.
func (b *SessionBuilder) push(content string, role Role, sender string, timestampMs int64) {
	opening := len(b.turns) == 0
	final := b.decorate(content, role, sender, opening)
	if opening {
		b.firstTurnMs = timestampMs
		if b.subject != "" {
			b.subjectInjected = true
		}
	}

	if b.mergeable(role) {
		appended := "\n" + final
		cost := b.tok(appended)
		last := &b.turns[len(b.turns)-1]
		last.Content += appended
		last.tokens += cost
		b.runningTokens += cost
		return
	}

	b.turns = append(b.turns, Turn{
		Role:    role,
		Content: final,
		Sender:  sender,
		tokens:  b.tok(final) + turnOverheadTokens,
		ts:      timestampMs,
	})
	b.runningTokens += b.turns[len(b.turns)-1].tokens
	if role == RoleAssistant {
		b.hasAssistant = true
	}
}

// decorate applies the group speaker prefix and, on a session's opening turn,
// the subject tag.
func (b *SessionBuilder) decorate(content string, role Role, sender string, opening bool) string {
	final := content
	if b.thread.IsGroup && role == RoleUser && b.opts.IncludeSpeakerNames {
		final = fmt.Sprintf("[%s]: %s", sender, content)
	}
	if opening && b.subject != "" && !b.subjectInjected {
		final = fmt.Sprintf("[Subject: %s]\n%s", b.subject, final)
	}
	return final
}

func (b *SessionBuilder) mergeable(role Role) bool {
	return b.opts.MergeSequential && len(b.turns) > 0 && b.turns[len(b.turns)-1].Role == role
}

// AddReaction buffers the imputed reply for a record that carries reactions
// but no usable text, such as a photo the owner reacted to.
func (b *SessionBuilder) AddReaction(reactionsJSON string, originRole Role, timestampMs int64) {
	if b.opts.ImputeReactions && reactionsJSON != "" {
		b.imputeReaction(reactionsJSON, originRole, timestampMs)
	}
}

// imputeReaction models an owner's emoji reaction on someone else's message
// as an implicit short reply. Malformed payloads are skipped, never fatal.
func (b *SessionBuilder) imputeReaction(reactionsJSON string, originRole Role, timestampMs int64) {
	if originRole == RoleAssistant {
		return
	}
	reacts, err := ParseReactions(reactionsJSON)
	if err != nil {
		LogDebug("thread %s: skipping malformed reactions payload: %v", b.thread.ID, err)
		return
	}
	for _, rc := range reacts {
		if b.identities.Contains(rc.Actor) {
			b.push(fmt.Sprintf("[Reacted \"%s\"]", rc.Reaction), RoleAssistant, rc.Actor, timestampMs)
			return
		}
	}
}

// Finalize closes the current session and returns its DatasetEntry, or nil
// when the buffer holds nothing trainable. Turns after the last assistant
// turn are carried into the next session's buffer with their token cost
// re-accounted.
func (b *SessionBuilder) Finalize() *DatasetEntry {
	if len(b.turns) == 0 {
		return nil
	}

	lastAssistant := -1
	for i := len(b.turns) - 1; i >= 0; i-- {
		if b.turns[i].Role == RoleAssistant {
			lastAssistant = i
			break
		}
	}

	// With no assistant turn every buffered turn is an orphan: the session
	// closes empty and the turns carry into the next one intact.
	var candidate []Turn
	orphans := append([]Turn(nil), b.turns[lastAssistant+1:]...)
	if lastAssistant >= 0 {
		candidate = b.turns[:lastAssistant+1]
	}

	firstTurnMs := b.firstTurnMs
	b.reset(orphans)

	// No owner turn means nothing to train a target on.
	if lastAssistant < 0 {
		return nil
	}

	// A strict user/assistant pairing is not meaningful for narrative
	// content, self-authored platforms, or many-to-one group threads.
	if !hasRole(candidate, RoleUser) &&
		!b.opts.KnowledgeMode && !b.thread.Platform.SelfAuthored() && !b.thread.IsGroup {
		return nil
	}

	if b.opts.KnowledgeMode {
		return b.narrativeEntry(candidate, firstTurnMs)
	}

	messages := make([]ChatMessage, 0, len(candidate)+1)
	messages = append(messages, ChatMessage{Role: RoleSystem, Content: b.opts.SystemPrompt()})
	for _, t := range candidate {
		messages = append(messages, ChatMessage{Role: t.Role, Content: t.Content})
	}
	return &DatasetEntry{Messages: messages}
}

// narrativeEntry flattens a session into one assistant message, trading
// dialogue structure for density: a [Platform · Date] header, non-owner lines
// with a [speaker]: prefix, owner lines bare.
func (b *SessionBuilder) narrativeEntry(candidate []Turn, firstTurnMs int64) *DatasetEntry {
	var sb strings.Builder
	date := time.Unix(0, firstTurnMs*int64(time.Millisecond)).UTC().Format("Jan 2, 2006")
	fmt.Fprintf(&sb, "[%s · %s]", b.thread.Platform.DisplayName(), date)
	for _, t := range candidate {
		sb.WriteString("\n")
		if t.Role == RoleAssistant {
			sb.WriteString(t.Content)
		} else {
			fmt.Fprintf(&sb, "[%s]: %s", t.Sender, t.Content)
		}
	}
	return &DatasetEntry{Messages: []ChatMessage{{Role: RoleAssistant, Content: sb.String()}}}
}

// reset replaces the buffer with the carried orphans and re-accounts tokens.
func (b *SessionBuilder) reset(orphans []Turn) {
	b.turns = orphans
	b.runningTokens = 0
	b.hasAssistant = false
	b.subjectInjected = false
	b.firstTurnMs = 0
	for _, t := range orphans {
		b.runningTokens += t.tokens
	}
	if len(orphans) > 0 {
		b.firstTurnMs = orphans[0].ts
	}
}

// Len returns the number of buffered turns, for tests and diagnostics.
func (b *SessionBuilder) Len() int {
	return len(b.turns)
}

func hasRole(turns []Turn, role Role) bool {
	for _, t := range turns {
		if t.Role == role {
			return true
		}
	}
	return false
}

// DisplayName renders a platform for the narrative header.
func (p Platform) DisplayName() string {
	switch p {
	case PlatformFacebook:
		return "Facebook"
	case PlatformInstagram:
		return "Instagram"
	case PlatformGoogleChat:
		return "Google Chat"
	case PlatformGoogleVoice:
		return "Google Voice"
	case PlatformGoogleMail:
		return "Gmail"
	case PlatformPosts:
		return "Posts"
	default:
		return string(p)
	}
}
