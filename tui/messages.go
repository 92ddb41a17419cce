// messages.go defines Bubble Tea messages used for async communication.
//
// The Snowflake connect, every analyst send, and every SQL execution run
// as commands and report back through these types, so the UI never blocks.
package tui

import (
	"snowchat/analyst"
	"snowchat/snowflake"
)

// ConnectedMsg is sent when the Snowflake session is established.
type ConnectedMsg struct {
	Session *snowflake.Session
}

// ConnectErrorMsg is sent when connecting fails. Fatal: the app shows the
// error and exits on the next keypress.
type ConnectErrorMsg struct {
	Err error
}

// ReplyMsg is sent when an analyst request completes. On failure Err is
// set and Reply is the zero value (empty content, no request id).
type ReplyMsg struct {
	Reply analyst.Reply
	Err   error
}

// QueryResultMsg is sent when the SQL of one content block finishes
// executing. Turn and Block locate the SQLBlock the result belongs to.
type QueryResultMsg struct {
	Turn   int
	Block  int
	Result *snowflake.QueryResult
	Err    error
}
