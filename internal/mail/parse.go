package mail

import "strings"

// DefaultSubject is used when a generated draft carries no Subject: line.
const DefaultSubject = "Follow-up on your inquiry"

// ParseContent splits a generated draft into subject and body. Every line
// starting with "Subject:" is stripped from the body and the last one wins,
// so a model that restates the subject never leaks the header into the
// message. Without one, the whole draft is the body under DefaultSubject.
func ParseContent(draft string) (subject, body string) {
	subject = DefaultSubject

	var bodyLines []string
	for _, line := range strings.Split(strings.TrimSpace(draft), "\n") {
		if strings.HasPrefix(line, "Subject:") {
			subject = strings.TrimSpace(strings.TrimPrefix(line, "Subject:"))
			continue
		}
		bodyLines = append(bodyLines, line)
	}

	body = strings.TrimSpace(strings.Join(bodyLines, "\n"))
	return subject, body
}
