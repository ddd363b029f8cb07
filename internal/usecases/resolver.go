package usecases

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"chatdagang/internal/entities"
)

// ErrTenantNotFound means no tenant owns the receiving channel id. The
// message is dropped: there is nobody to charge a reply to.
var ErrTenantNotFound = errors.New("tenant not resolved")

// TenantDirectory is what the resolver needs from storage. Find* methods
// return (nil, nil) when nothing matches so the strategy chain can move on.
type TenantDirectory interface {
	FindIntegration(ctx context.Context, platform entities.Channel, externalID string) (*entities.Integration, error)
	FindBranchByChannelID(ctx context.Context, channelID string) (*entities.Branch, string, error)
	FindBusinessByChannelID(ctx context.Context, channelID string) (*entities.Business, string, error)
	GetBusiness(ctx context.Context, id int64) (*entities.Business, error)
	GetBranch(ctx context.Context, id int64) (*entities.Branch, error)
	BranchesOf(ctx context.Context, businessID int64) ([]entities.Branch, error)
}

// CredentialOpener decrypts sealed provider credentials.
type CredentialOpener interface {
	OpenCredentials(sealed string) (entities.Credentials, error)
}

// Resolver maps a receiving channel id to its tenant. Resolution strategies
// run in order (unified integration registry first, then the two legacy direct
// lookups) until one produces an owner. Safe to repeat; nothing here writes.
type Resolver struct {
	dir   TenantDirectory
	creds CredentialOpener
	log   *zap.Logger
}

func NewResolver(dir TenantDirectory, creds CredentialOpener, log *zap.Logger) *Resolver {
	return &Resolver{dir: dir, creds: creds, log: log.Named("resolver")}
}

// resolvedOwner is what one strategy yields: the owning branch (if any) and
// the integration to reply through.
type resolvedOwner struct {
	businessID  int64
	branch      *entities.Branch
	integration entities.Integration
}

type strategy func(ctx context.Context, platform entities.Channel, externalID string) (*resolvedOwner, error)

func (r *Resolver) Resolve(ctx context.Context, platform entities.Channel, businessChannelID string) (entities.TenantContext, error) {
	for _, s := range []strategy{r.fromRegistry, r.fromLegacyBranch, r.fromLegacyBusiness} {
		owner, err := s(ctx, platform, businessChannelID)
		if err != nil {
			return entities.TenantContext{}, err
		}
		if owner != nil {
			return r.buildContext(ctx, owner)
		}
	}
	return entities.TenantContext{}, ErrTenantNotFound
}

func (r *Resolver) fromRegistry(ctx context.Context, platform entities.Channel, externalID string) (*resolvedOwner, error) {
	integ, err := r.dir.FindIntegration(ctx, platform, externalID)
	if err != nil || integ == nil {
		return nil, err
	}
	owner := &resolvedOwner{integration: *integ}
	if integ.OwnerBranchID != nil {
		branch, err := r.dir.GetBranch(ctx, *integ.OwnerBranchID)
		if err != nil {
			return nil, err
		}
		// A branch has no standalone identity for contract purposes; the
		// parent business is always attached.
		owner.branch = branch
		owner.businessID = branch.BusinessID
	} else {
		owner.businessID = integ.OwnerBusinessID
	}
	return owner, nil
}

func (r *Resolver) fromLegacyBranch(ctx context.Context, platform entities.Channel, externalID string) (*resolvedOwner, error) {
	branch, sealed, err := r.dir.FindBranchByChannelID(ctx, externalID)
	if err != nil || branch == nil {
		return nil, err
	}
	return &resolvedOwner{
		businessID:  branch.BusinessID,
		branch:      branch,
		integration: legacyIntegration(platform, externalID, sealed),
	}, nil
}

func (r *Resolver) fromLegacyBusiness(ctx context.Context, platform entities.Channel, externalID string) (*resolvedOwner, error) {
	business, sealed, err := r.dir.FindBusinessByChannelID(ctx, externalID)
	if err != nil || business == nil {
		return nil, err
	}
	return &resolvedOwner{
		businessID:  business.ID,
		integration: legacyIntegration(platform, externalID, sealed),
	}, nil
}

// legacyIntegration fills in an implicit registration for pre-registry rows:
// the provider matches the inbound platform and the binding counts as enabled.
func legacyIntegration(platform entities.Channel, externalID, sealed string) entities.Integration {
	return entities.Integration{
		Platform:          platform,
		ExternalID:        externalID,
		Provider:          platform,
		Enabled:           true,
		SealedCredentials: sealed,
	}
}

func (r *Resolver) buildContext(ctx context.Context, owner *resolvedOwner) (entities.TenantContext, error) {
	business, err := r.dir.GetBusiness(ctx, owner.businessID)
	if err != nil {
		return entities.TenantContext{}, err
	}

	branch := owner.branch
	if branch == nil {
		// A business with exactly one branch replies with that branch's
		// identity; zero or multiple branches leaves disambiguation to the
		// conversation engine.
		branches, err := r.dir.BranchesOf(ctx, business.ID)
		if err != nil {
			return entities.TenantContext{}, err
		}
		if len(branches) == 1 {
			branch = &branches[0]
		}
	}

	tc := entities.TenantContext{
		Business:    *business,
		Branch:      branch,
		Integration: owner.integration,
	}

	if owner.integration.SealedCredentials != "" {
		creds, err := r.creds.OpenCredentials(owner.integration.SealedCredentials)
		if err != nil {
			// Resolution still succeeds: gating and inbound logging do not
			// need credentials. Sends will fail terminally instead.
			r.log.Error("credential decrypt failed",
				zap.Int64("business_id", business.ID),
				zap.Error(err))
		} else {
			tc.Credentials = &creds
		}
	}

	return tc, nil
}
