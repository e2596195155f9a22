package session

import "context"

// Static reports a fixed user for the lifetime of the process, as configured
// through USER_ID. An empty ID means nobody is signed in.
type Static struct {
	userID string
}

func NewStatic(userID string) *Static {
	return &Static{userID: userID}
}

// CurrentUserID implements ports.SessionProvider.
func (s *Static) CurrentUserID(ctx context.Context) (string, bool) {
	if s.userID == "" {
		return "", false
	}
	return s.userID, true
}
