package domain

// Claim names consulted when deriving the requesting user, in priority order.
const (
	ClaimCognitoUsername = "cognito:username"
	ClaimEmail           = "email"
	ClaimSubject         = "sub"
)

// AnonymousUser is used when no identity claim is present.
const AnonymousUser = "anonymous"

var identityClaimOrder = []string{ClaimCognitoUsername, ClaimEmail, ClaimSubject}

// Claims holds the identity assertions forwarded by the gateway authorizer.
// Values are usually strings but some authorizers forward lists or numbers.
type Claims map[string]any

// IdentityFromClaims returns the first non-empty string claim among
// cognito:username, email and sub, or AnonymousUser.
func IdentityFromClaims(claims Claims) string {
	for _, name := range identityClaimOrder {
		if v, ok := claims[name].(string); ok && v != "" {
			return v
		}
	}
	return AnonymousUser
}
