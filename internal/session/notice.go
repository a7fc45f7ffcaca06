package session

// NoticeKind separates session-ending notices from ones the user dismisses.
type NoticeKind int

const (
	Dismissible NoticeKind = iota
	Fatal
)

func (k NoticeKind) String() string {
	if k == Fatal {
		return "fatal"
	}
	return "dismissible"
}

// Notice is a message shown over the map.
type Notice struct {
	Kind NoticeKind
	Text string
}

// Notices queues dismissible messages and holds at most one fatal one.
// A fatal notice cannot be dismissed.
type Notices struct {
	fatal *Notice
	queue []Notice
}

// Push queues a dismissible notice.
func (n *Notices) Push(text string) {
	n.queue = append(n.queue, Notice{Kind: Dismissible, Text: text})
}

// Raise sets the fatal notice. Only the first one is kept.
func (n *Notices) Raise(text string) {
	if n.fatal == nil {
		n.fatal = &Notice{Kind: Fatal, Text: text}
	}
}

// Current returns the notice on top: the fatal one, else the oldest queued.
func (n *Notices) Current() (Notice, bool) {
	if n.fatal != nil {
		return *n.fatal, true
	}
	if len(n.queue) == 0 {
		return Notice{}, false
	}
	return n.queue[0], true
}

// Dismiss drops the oldest dismissible notice.
func (n *Notices) Dismiss() {
	if n.fatal != nil || len(n.queue) == 0 {
		return
	}
	n.queue = n.queue[1:]
}

func (n *Notices) Len() int {
	c := len(n.queue)
	if n.fatal != nil {
		c++
	}
	return c
}
