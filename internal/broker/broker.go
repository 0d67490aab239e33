// Package broker exchanges a tenant identity for short-lived, tag-scoped
// credentials. The trust policy on the assumed role is the enforcement
// point; this package only shapes the request.
package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	ststypes "github.com/aws/aws-sdk-go-v2/service/sts/types"
)

// ErrBroker wraps any rejection from the role-assumption API. Callers must
// deny the overall request; there is no unscoped fallback.
var ErrBroker = errors.New("credential broker rejected request")

// Tag is one session tag attached to the exchange. The tag set is the sole
// boundary enforced by the role's ABAC trust policy.
type Tag struct {
	Name  string
	Value string
}

// Credentials are owned by the request that created them. They are never
// cached beyond the invocation and never logged.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Expiry          time.Time
}

// AssumeRoleAPI is the slice of the STS client this package depends on.
type AssumeRoleAPI interface {
	AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
}

// Broker assumes tag-scoped roles through an injected STS client.
type Broker struct {
	client AssumeRoleAPI
}

func New(client AssumeRoleAPI) *Broker {
	return &Broker{client: client}
}

// NewFromEnv builds a Broker on the default AWS credential chain.
func NewFromEnv(ctx context.Context) (*Broker, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return New(sts.NewFromConfig(cfg)), nil
}

// AssumeScopedRole exchanges the tag set for temporary credentials under
// roleArn. The session name is deterministic over the tag set, so retries
// with identical tags reuse the same session name.
func (b *Broker) AssumeScopedRole(ctx context.Context, roleArn string, tags []Tag, durationSeconds int32) (Credentials, error) {
	if roleArn == "" {
		return Credentials{}, fmt.Errorf("%w: empty role arn", ErrBroker)
	}
	stsTags := make([]ststypes.Tag, 0, len(tags))
	for _, t := range tags {
		stsTags = append(stsTags, ststypes.Tag{Key: aws.String(t.Name), Value: aws.String(t.Value)})
	}
	out, err := b.client.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(roleArn),
		RoleSessionName: aws.String(SessionName(tags)),
		DurationSeconds: aws.Int32(durationSeconds),
		Tags:            stsTags,
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrBroker, err)
	}
	if out.Credentials == nil {
		return Credentials{}, fmt.Errorf("%w: empty credentials in response", ErrBroker)
	}
	creds := Credentials{
		AccessKeyID:     aws.ToString(out.Credentials.AccessKeyId),
		SecretAccessKey: aws.ToString(out.Credentials.SecretAccessKey),
		SessionToken:    aws.ToString(out.Credentials.SessionToken),
	}
	if out.Credentials.Expiration != nil {
		creds.Expiry = *out.Credentials.Expiration
	}
	return creds, nil
}
