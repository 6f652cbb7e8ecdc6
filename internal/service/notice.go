package service

import "time"

// NoticeTTL is how long a cart notice stays on screen before it is dismissed.
const NoticeTTL = time.Second

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a short-lived message shown next to the product a shopper acted on.
type Notice struct {
	Kind           NoticeKind `json:"kind"`
	Text           string     `json:"text"`
	DismissAfterMS int64      `json:"dismiss_after_ms"`
}

func AddedNotice() Notice {
	return Notice{
		Kind:           NoticeSuccess,
		Text:           "Item successfully added to cart!",
		DismissAfterMS: NoticeTTL.Milliseconds(),
	}
}

func NoticeFor(err error) Notice {
	return Notice{
		Kind:           NoticeError,
		Text:           UserMessage(err),
		DismissAfterMS: NoticeTTL.Milliseconds(),
	}
}
