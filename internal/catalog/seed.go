package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	seedPathRequiredMessageConstant             = "catalog seed path must be provided"
	seedReadErrorTemplateConstant               = "failed to read catalog seed: %w"
	seedParseErrorTemplateConstant              = "failed to parse catalog seed: %w"
	seedStandardIDMissingMessageConstant        = "catalog seed standard missing id"
	seedDuplicateStandardTemplateConstant       = "catalog seed defines duplicate standard %s"
	seedItemIDMissingTemplateConstant           = "catalog seed standard %s contains an item without id"
	seedDuplicateItemTemplateConstant           = "catalog seed defines duplicate item %s"
	seedTemplateCategoryUnknownTemplateConstant = "catalog seed template %s references unknown category %s"
	seedUserOrganizationMissingTemplateConstant = "catalog seed user %s missing organization_id"
	seedDuplicateCategoryTemplateConstant       = "catalog seed defines duplicate category %s"
	seedDuplicateTemplateTemplateConstant       = "catalog seed defines duplicate template %s"
	seedDuplicateUserTemplateConstant           = "catalog seed defines duplicate user %s"
	seedCategoryIDMissingMessageConstant        = "catalog seed category missing id"
	seedTemplateIDMissingMessageConstant        = "catalog seed template missing id"
	seedUserIDMissingMessageConstant            = "catalog seed user missing id"
)

// SeedStandard couples a standard with its item tree inside a seed file.
type SeedStandard struct {
	Standard `yaml:",inline"`
	Items    []StandardItem `yaml:"items"`
}

// SeedUser maps an acting user to the organization that owns their audits.
type SeedUser struct {
	ID             string `yaml:"id" json:"id"`
	OrganizationID string `yaml:"organization_id" json:"organization_id"`
}

// Seed is the importable catalog document.
type Seed struct {
	Standards  []SeedStandard `yaml:"standards"`
	Categories []Category     `yaml:"categories"`
	Templates  []Template     `yaml:"templates"`
	Users      []SeedUser     `yaml:"users"`
}

// LoadSeedFile reads and validates a YAML seed document from disk.
func LoadSeedFile(filePath string) (Seed, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return Seed{}, errors.New(seedPathRequiredMessageConstant)
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return Seed{}, fmt.Errorf(seedReadErrorTemplateConstant, readError)
	}

	return ParseSeed(contentBytes)
}

// ParseSeed decodes and validates a YAML seed document.
func ParseSeed(contentBytes []byte) (Seed, error) {
	var seed Seed
	if unmarshalError := yaml.Unmarshal(contentBytes, &seed); unmarshalError != nil {
		return Seed{}, fmt.Errorf(seedParseErrorTemplateConstant, unmarshalError)
	}

	if validationError := seed.validate(); validationError != nil {
		return Seed{}, validationError
	}

	for standardIndex := range seed.Standards {
		assignStandardID(seed.Standards[standardIndex].Items, seed.Standards[standardIndex].ID)
	}

	return seed, nil
}

func (seed Seed) validate() error {
	standardIDs := make(map[string]struct{}, len(seed.Standards))
	itemIDs := make(map[string]struct{})
	for _, seedStandard := range seed.Standards {
		standardID := strings.TrimSpace(seedStandard.ID)
		if len(standardID) == 0 {
			return errors.New(seedStandardIDMissingMessageConstant)
		}
		if _, exists := standardIDs[standardID]; exists {
			return fmt.Errorf(seedDuplicateStandardTemplateConstant, standardID)
		}
		standardIDs[standardID] = struct{}{}
		if itemError := validateSeedItems(seedStandard.Items, standardID, itemIDs); itemError != nil {
			return itemError
		}
	}

	categoryIDs := make(map[string]struct{}, len(seed.Categories))
	for _, category := range seed.Categories {
		if len(strings.TrimSpace(category.ID)) == 0 {
			return errors.New(seedCategoryIDMissingMessageConstant)
		}
		if _, exists := categoryIDs[category.ID]; exists {
			return fmt.Errorf(seedDuplicateCategoryTemplateConstant, category.ID)
		}
		categoryIDs[category.ID] = struct{}{}
	}

	templateIDs := make(map[string]struct{}, len(seed.Templates))
	for _, template := range seed.Templates {
		if len(strings.TrimSpace(template.ID)) == 0 {
			return errors.New(seedTemplateIDMissingMessageConstant)
		}
		if _, exists := templateIDs[template.ID]; exists {
			return fmt.Errorf(seedDuplicateTemplateTemplateConstant, template.ID)
		}
		templateIDs[template.ID] = struct{}{}
		if _, exists := categoryIDs[template.CategoryID]; !exists {
			return fmt.Errorf(seedTemplateCategoryUnknownTemplateConstant, template.ID, template.CategoryID)
		}
	}

	userIDs := make(map[string]struct{}, len(seed.Users))
	for _, user := range seed.Users {
		if len(strings.TrimSpace(user.ID)) == 0 {
			return errors.New(seedUserIDMissingMessageConstant)
		}
		if _, exists := userIDs[user.ID]; exists {
			return fmt.Errorf(seedDuplicateUserTemplateConstant, user.ID)
		}
		userIDs[user.ID] = struct{}{}
		if len(strings.TrimSpace(user.OrganizationID)) == 0 {
			return fmt.Errorf(seedUserOrganizationMissingTemplateConstant, user.ID)
		}
	}

	return nil
}

func validateSeedItems(items []StandardItem, standardID string, seen map[string]struct{}) error {
	for _, item := range items {
		if len(strings.TrimSpace(item.ID)) == 0 {
			return fmt.Errorf(seedItemIDMissingTemplateConstant, standardID)
		}
		if _, exists := seen[item.ID]; exists {
			return fmt.Errorf(seedDuplicateItemTemplateConstant, item.ID)
		}
		seen[item.ID] = struct{}{}
		if childError := validateSeedItems(item.Children, standardID, seen); childError != nil {
			return childError
		}
	}
	return nil
}
