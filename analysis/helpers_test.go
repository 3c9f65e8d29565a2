package analysis

import "time"

var base = time.Date(2017, time.January, 3, 9, 0, 0, 0, time.UTC)

func msgAt(d time.Duration, sender, content string) Message {
	return Message{Timestamp: base.Add(d), Sender: sender, Content: content}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
