package service

import (
	"context"
	"log"
	"strings"

	"speechcheck/internal/models"
	"speechcheck/internal/repository"
	"speechcheck/internal/seed"
	"speechcheck/internal/validation"
)

// CatalogService manages test subjects and the sentence/word bank
type CatalogService struct {
	userRepo   *repository.UserRepository
	targetRepo *repository.TargetRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(userRepo *repository.UserRepository, targetRepo *repository.TargetRepository) *CatalogService {
	return &CatalogService{
		userRepo:   userRepo,
		targetRepo: targetRepo,
	}
}

// NewUserInput is the payload for registering a test subject
type NewUserInput struct {
	Username string `json:"username"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
}

// NewTargetItemInput is the payload for adding a sentence or word. Zero
// values take the catalog defaults.
type NewTargetItemInput struct {
	Content            string   `json:"content"`
	Type               string   `json:"type"`
	Level              string   `json:"level"`
	SetNumber          int      `json:"set_number"`
	ExpectedVariations []string `json:"expected_variations"`
}

// CreateUser validates and stores a new test subject
func (s *CatalogService) CreateUser(ctx context.Context, in NewUserInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, validationError(err)
	}
	if err := validation.ValidateAge(in.Age); err != nil {
		return nil, validationError(err)
	}
	if err := validation.ValidateGender(in.Gender); err != nil {
		return nil, validationError(err)
	}

	user, err := s.userRepo.CreateUser(ctx, username, in.Age, in.Gender)
	if err != nil {
		return nil, persistenceError(err)
	}
	return user, nil
}

// ListUsers returns every user, newest first
func (s *CatalogService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.ListUsers(ctx)
	if err != nil {
		return nil, persistenceError(err)
	}
	return users, nil
}

// CreateItem validates and stores a target item
func (s *CatalogService) CreateItem(ctx context.Context, in NewTargetItemInput) (*models.TargetItem, error) {
	item := &models.TargetItem{
		Content:            strings.TrimSpace(in.Content),
		Type:               in.Type,
		Level:              strings.TrimSpace(in.Level),
		SetNumber:          in.SetNumber,
		ExpectedVariations: in.ExpectedVariations,
	}
	if item.Type == "" {
		item.Type = models.ItemTypeSentence
	}
	if item.Level == "" {
		item.Level = models.DefaultItemLevel
	}
	if item.SetNumber == 0 {
		item.SetNumber = models.DefaultItemSetNumber
	}
	if item.ExpectedVariations == nil {
		item.ExpectedVariations = []string{}
	}

	if err := validateItem(item); err != nil {
		return nil, err
	}

	if err := s.targetRepo.CreateItem(ctx, item); err != nil {
		return nil, persistenceError(err)
	}
	return item, nil
}

func validateItem(item *models.TargetItem) error {
	if err := validation.ValidateContent(item.Content); err != nil {
		return validationError(err)
	}
	if err := validation.ValidateItemType(item.Type); err != nil {
		return validationError(err)
	}
	if err := validation.ValidateSetNumber(item.SetNumber); err != nil {
		return validationError(err)
	}
	return nil
}

// ListItems returns target items matching the filter
func (s *CatalogService) ListItems(ctx context.Context, filter models.TargetItemFilter) ([]models.TargetItem, error) {
	if filter.Type != "" {
		if err := validation.ValidateItemType(filter.Type); err != nil {
			return nil, validationError(err)
		}
	}
	items, err := s.targetRepo.ListItems(ctx, filter)
	if err != nil {
		return nil, persistenceError(err)
	}
	return items, nil
}

// DeleteItem hard-deletes a target item. Deleting an id that does not exist
// succeeds, and existing sessions for the item are kept.
func (s *CatalogService) DeleteItem(ctx context.Context, id int64) error {
	if id <= 0 {
		return invalidField("id", "invalid sentence id")
	}
	if err := s.targetRepo.DeleteItem(ctx, id); err != nil {
		return persistenceError(err)
	}
	return nil
}

// SeedBank stores every item of a bank. With onlyIfEmpty set, nothing is
// stored when the catalog already has items. Returns the number stored.
func (s *CatalogService) SeedBank(ctx context.Context, bank *seed.Bank, onlyIfEmpty bool) (int, error) {
	if onlyIfEmpty {
		count, err := s.targetRepo.CountItems(ctx)
		if err != nil {
			return 0, persistenceError(err)
		}
		if count > 0 {
			log.Printf("Seeding skipped: catalog already has %d items", count)
			return 0, nil
		}
	}

	items := bank.TargetItems()
	for i := range items {
		if err := validateItem(&items[i]); err != nil {
			return 0, err
		}
	}

	created := 0
	for i := range items {
		if err := s.targetRepo.CreateItem(ctx, &items[i]); err != nil {
			return created, persistenceError(err)
		}
		created++
	}

	log.Printf("Seeded %d target items", created)
	return created, nil
}
