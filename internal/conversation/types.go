// Package conversation provides per-session state for the ice sculpture
// assistant: the sculpture being designed and the ordered log of turns
// shown on the page.
//
// # Design Overview
//
// The remote model is stateless. Continuity comes from the sculpture state,
// which is re-rendered into the system prompt on every request. The
// conversation log is only displayed; it is never sent to the model.
//
// A Log is append-only. It is seeded with a single welcome entry and grows
// by exactly one entry per successful chat turn. Entries are never trimmed.
//
// # Sessions
//
// A Session bundles one sculpture state with one log behind a mutex.
// SessionManager hands out sessions by ID. In the default single-user mode
// every request uses DefaultSessionID; per-browser isolation uses the
// session cookie ID instead.
//
// # Usage Example
//
//	sm := NewSessionManager()
//	s := sm.GetOrCreate(DefaultSessionID)
//
//	prompt := llm.BuildSystemPrompt(s.State())
//	s.Append(Entry{User: "a swan", AI: reply})
package conversation

// UploadMarker is the user text recorded for an image-analysis turn.
const UploadMarker = "[Uploaded image]"

// WelcomeMessage seeds every new conversation log.
const WelcomeMessage = "Welcome to **Ice Sculptures Rendering**! I'm your visual artist assistant, " +
	"specializing in designing and modifying realistic ice sculptures. 🧊\n\n" +
	"- You can describe a sculpture you'd like me to create\n" +
	"- Or upload an image you'd like me to turn into an ice sculpture\n\n" +
	"I'll remember details across our conversation and stay completely in the ice art context!"

// Entry is one user/assistant turn.
type Entry struct {
	User string `json:"user"`
	AI   string `json:"ai"`
}

// Log is an ordered, append-only sequence of entries.
//
// Log is not thread-safe. Session guards it.
type Log struct {
	entries []Entry
}

// NewLog returns a log holding only the welcome entry.
func NewLog() *Log {
	return &Log{
		entries: []Entry{{User: "", AI: WelcomeMessage}},
	}
}

// Append adds an entry to the end of the log.
func (l *Log) Append(e Entry) {
	l.entries = append(l.entries, e)
}

// Entries returns a copy of the log.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries, including the welcome entry.
func (l *Log) Len() int {
	return len(l.entries)
}
