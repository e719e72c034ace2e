package auth

// Permission is a role grant requested in the access token.
//
//	Role                               Permission
//	webpubsub.joinLeaveGroup           join/leave any group
//	webpubsub.sendToGroup              publish to any group
//	webpubsub.joinLeaveGroup.<group>   join/leave group <group>
//	webpubsub.sendToGroup.<group>      publish to group <group>
type Permission struct {
	kind  string
	group string
}

const (
	kindJoinLeaveGroup = "webpubsub.joinLeaveGroup"
	kindSendToGroup    = "webpubsub.sendToGroup"
)

// JoinLeaveGroup grants join/leave on the given group, or on any group
// when group is empty.
func JoinLeaveGroup(group string) Permission {
	return Permission{kind: kindJoinLeaveGroup, group: group}
}

// SendToGroup grants publishing to the given group, or to any group when
// group is empty.
func SendToGroup(group string) Permission {
	return Permission{kind: kindSendToGroup, group: group}
}

// Role returns the role string carried in the token claims.
func (p Permission) Role() string {
	if p.group == "" {
		return p.kind
	}
	return p.kind + "." + p.group
}
