package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/catalog"
)

const testSeedDocumentConstant = `
standards:
  - id: iso-9001
    code: ISO 9001
    name: Quality management systems
    version: "2015"
    items:
      - id: g4
        item_number: "4"
        title: Context of the organization
        field_type: group
        children:
          - id: q4.1
            item_number: "4.1"
            title: Understanding the organization
            field_type: question
categories:
  - id: quality
    title: Quality
templates:
  - id: internal-quality
    name: Internal quality audit
    category_id: quality
users:
  - id: auditor-1
    organization_id: org-1
`

func TestParseSeedAssignsStandardIdentifiers(testInstance *testing.T) {
	seed, parseError := catalog.ParseSeed([]byte(testSeedDocumentConstant))
	require.NoError(testInstance, parseError)

	require.Len(testInstance, seed.Standards, 1)
	require.Equal(testInstance, "ISO 9001", seed.Standards[0].Code)
	require.Equal(testInstance, "iso-9001", seed.Standards[0].Items[0].Children[0].StandardID)
	require.Equal(testInstance, 1, catalog.CountQuestions(seed.Standards[0].Items))
	require.Equal(testInstance, "org-1", seed.Users[0].OrganizationID)
}

func TestParseSeedRejectsInvalidDocuments(testInstance *testing.T) {
	testCases := []struct {
		name     string
		document string
	}{
		{
			name:     "duplicate_item",
			document: "standards:\n  - id: s1\n    items:\n      - id: a\n      - id: a\n",
		},
		{
			name:     "template_unknown_category",
			document: "templates:\n  - id: t1\n    category_id: missing\n",
		},
		{
			name:     "user_without_organization",
			document: "users:\n  - id: u1\n",
		},
		{
			name:     "standard_without_id",
			document: "standards:\n  - code: X\n",
		},
		{
			name:     "malformed_yaml",
			document: "standards: [",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			_, parseError := catalog.ParseSeed([]byte(testCase.document))
			require.Error(subTest, parseError)
		})
	}
}

func TestLoadSeedFile(testInstance *testing.T) {
	seedPath := filepath.Join(testInstance.TempDir(), "catalog.yaml")
	require.NoError(testInstance, os.WriteFile(seedPath, []byte(testSeedDocumentConstant), 0o600))

	seed, loadError := catalog.LoadSeedFile(seedPath)
	require.NoError(testInstance, loadError)
	require.Len(testInstance, seed.Templates, 1)

	_, missingPathError := catalog.LoadSeedFile("  ")
	require.Error(testInstance, missingPathError)
}
