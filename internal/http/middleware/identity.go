package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Identity headers. There is no authentication: the caller states who it
// is and the API scopes data accordingly.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
	HeaderUserRole = "X-User-Role"
	HeaderDealerID = "X-Dealer-ID"
	HeaderRegion   = "X-User-Region"
)

// DefaultUserID is used when no X-User-ID header is sent.
const DefaultUserID = "demo-user"

const (
	ctxKeyUserID   = "userID"
	ctxKeyIdentity = "identity"
)

// Caller is the identity stated by the request headers.
type Caller struct {
	UserID   string
	Name     string
	Role     string
	DealerID string
	Region   string
}

// Identity reads the identity headers into the Gin context. The user id is
// also stored on its own under "userID".
// Roles are lower-cased and otherwise passed through unchecked. Sessions
// store an unknown role as blank, which gets the neutral greeting.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		who := Caller{
			UserID:   strings.TrimSpace(c.GetHeader(HeaderUserID)),
			Name:     strings.TrimSpace(c.GetHeader(HeaderUserName)),
			Role:     strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderUserRole))),
			DealerID: strings.TrimSpace(c.GetHeader(HeaderDealerID)),
			Region:   strings.TrimSpace(c.GetHeader(HeaderRegion)),
		}
		if who.UserID == "" {
			who.UserID = DefaultUserID
		}
		c.Set(ctxKeyUserID, who.UserID)
		c.Set(ctxKeyIdentity, who)
		c.Next()
	}
}

// CallerFrom returns the identity stored by Identity. Without the
// middleware it falls back to reading the headers directly.
func CallerFrom(c *gin.Context) Caller {
	if v, ok := c.Get(ctxKeyIdentity); ok {
		if who, ok := v.(Caller); ok {
			return who
		}
	}
	who := Caller{UserID: DefaultUserID}
	if c.Request == nil {
		return who
	}
	if id := strings.TrimSpace(c.GetHeader(HeaderUserID)); id != "" {
		who.UserID = id
	}
	who.Name = strings.TrimSpace(c.GetHeader(HeaderUserName))
	who.Role = strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderUserRole)))
	who.DealerID = strings.TrimSpace(c.GetHeader(HeaderDealerID))
	who.Region = strings.TrimSpace(c.GetHeader(HeaderRegion))
	return who
}
