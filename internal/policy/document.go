package policy

// Document is the policy document shape the gateway expects from an
// authorizer response.
type Document struct {
	PrincipalID        string            `json:"principalId"`
	PolicyDocument     PolicyDocument    `json:"policyDocument"`
	Context            map[string]string `json:"context,omitempty"`
	UsageIdentifierKey string            `json:"usageIdentifierKey,omitempty"`
}

type PolicyDocument struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

type Statement struct {
	Action   string `json:"Action"`
	Effect   string `json:"Effect"`
	Resource string `json:"Resource"`
}

const policyVersion = "2012-10-17"

// Document serializes the decision into the gateway policy document shape.
func (d Decision) Document() Document {
	doc := Document{
		PrincipalID: d.PrincipalID,
		PolicyDocument: PolicyDocument{
			Version: policyVersion,
			Statement: []Statement{{
				Action:   "execute-api:Invoke",
				Effect:   string(d.Effect),
				Resource: d.ResourceArn,
			}},
		},
		UsageIdentifierKey: d.UsageIdentifierKey,
	}
	if d.Effect == EffectAllow {
		doc.Context = d.Context
	}
	return doc
}
