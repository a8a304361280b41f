package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// Update applies the patch's present fields and returns the stored user.
	Update(ctx context.Context, id string, patch domain.UserPatch, updatedAt time.Time) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
}

// UserUseCase handles customer management operations
type UserUseCase struct {
	userRepo  UserRepository
	auditRepo AuditRepository
	cache     Cache
	cacheTTL  time.Duration
	idGen     IDGenerator
	metrics   *metrics.Metrics
}

// NewUserUseCase creates a new user use case. cache, auditRepo and metrics may be nil.
func NewUserUseCase(
	userRepo UserRepository,
	auditRepo AuditRepository,
	cache Cache,
	cacheTTL time.Duration,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *UserUseCase {
	if cacheTTL <= 0 {
		cacheTTL = DefaultUserCacheTTL
	}

	return &UserUseCase{
		userRepo:  userRepo,
		auditRepo: auditRepo,
		cache:     cache,
		cacheTTL:  cacheTTL,
		idGen:     idGen,
		metrics:   metrics,
	}
}

// CreateUserInput represents input for creating a user
type CreateUserInput struct {
	FirstName   string
	LastName    string
	Email       string
	DateOfBirth time.Time
	Address     domain.Address
}

// CreateUser registers a new customer
func (uc *UserUseCase) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	now := time.Now().UTC()

	user := &domain.User{
		ID:          uc.idGen.Generate(),
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       domain.NormalizeEmail(input.Email),
		DateOfBirth: input.DateOfBirth,
		Address:     input.Address,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// GetUser retrieves a user by ID, reading through the cache when configured
func (uc *UserUseCase) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if cached := uc.cached(ctx, id); cached != nil {
		return cached, nil
	}

	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if data, err := json.Marshal(user); err == nil {
			_ = uc.cache.Set(ctx, userCacheKey(id), data, uc.cacheTTL)
		}
	}

	return user, nil
}

// UpdateUser applies a partial update. An empty patch changes nothing.
func (uc *UserUseCase) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	if patch.Email != nil && *patch.Email != "" {
		if err := domain.ValidateEmail(*patch.Email); err != nil {
			return nil, err
		}
	}

	for column, value := range patch.Fields() {
		if s, ok := value.(string); ok {
			if err := domain.ValidateRequired(column, s); err != nil {
				return nil, err
			}
		}
	}

	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.IsEmpty() {
		return user, nil
	}

	updated, err := uc.userRepo.Update(ctx, id, patch, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	uc.evict(ctx, id)

	return updated, nil
}

// DeleteUser deletes a user unconditionally. Accounts they owned, and the
// payments between them, are kept with the owner cleared.
func (uc *UserUseCase) DeleteUser(ctx context.Context, id string) error {
	if err := uc.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	uc.evict(ctx, id)

	if uc.auditRepo == nil {
		return nil
	}

	err := uc.auditRepo.Create(ctx, &domain.AuditLog{
		Action:       domain.AuditActionUserDelete,
		ResourceType: "user",
		ResourceID:   id,
		Status:       domain.AuditStatusSuccess,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		// The delete has committed; a failed audit row must not turn it into an error.
		zerolog.Ctx(ctx).Error().Err(err).Str("user_id", id).Msg("failed to audit user deletion")
	}

	return nil
}

// ListUsers lists all users with pagination
func (uc *UserUseCase) ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)

	return uc.userRepo.List(ctx, limit, offset)
}

func (uc *UserUseCase) cached(ctx context.Context, id string) *domain.User {
	if uc.cache == nil {
		return nil
	}

	data, err := uc.cache.Get(ctx, userCacheKey(id))
	if err != nil || data == nil {
		uc.observeCache("miss")
		return nil
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		uc.observeCache("miss")
		return nil
	}

	uc.observeCache("hit")
	return &user
}

func (uc *UserUseCase) evict(ctx context.Context, id string) {
	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, userCacheKey(id))
	}
}

func (uc *UserUseCase) observeCache(result string) {
	if uc.metrics != nil {
		uc.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}

func userCacheKey(id string) string {
	return "user:" + id
}
