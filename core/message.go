package core

// UserAuthor is the author recorded for messages coming from the client.
const UserAuthor = "User"

// Message is one entry in a conversation history.
type Message struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

// NewUserMessage creates a message authored by the user.
func NewUserMessage(text string) Message {
	return Message{Author: UserAuthor, Text: text}
}

// AuthorOrUser returns the author, or UserAuthor when empty.
func (m Message) AuthorOrUser() string {
	if m.Author == "" {
		return UserAuthor
	}
	return m.Author
}
