package ingest

import (
	"embed"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config/contracts.yaml
var contractsYAML embed.FS

// Registry holds the field aliases of every known backend contract version.
type Registry struct {
	Versions []ContractVersion `yaml:"versions"`
}

// ContractVersion lists, per canonical field, the upstream names used by one
// backend release.
type ContractVersion struct {
	Name         string             `yaml:"name"`
	Description  string             `yaml:"description,omitempty"`
	Envelopes    []string           `yaml:"envelopes,omitempty"`
	Tender       TenderFields       `yaml:"tender,omitempty"`
	Family       CatalogFields      `yaml:"family,omitempty"`
	Subfamily    CatalogFields      `yaml:"subfamily,omitempty"`
	Notification NotificationFields `yaml:"notification,omitempty"`
	Email        EmailFields        `yaml:"email,omitempty"`
}

type TenderFields struct {
	ID              []string `yaml:"id,omitempty"`
	Title           []string `yaml:"title,omitempty"`
	Description     []string `yaml:"description,omitempty"`
	TenderType      []string `yaml:"tender_type,omitempty"`
	PublicationDate []string `yaml:"publication_date,omitempty"`
	ClosingDateTime []string `yaml:"closing_date_time,omitempty"`
	Link            []string `yaml:"link,omitempty"`
	Family          []string `yaml:"family,omitempty"`
	Subfamily       []string `yaml:"subfamily,omitempty"`

	// Flat fallbacks for payloads that do not nest the catalog entries.
	FamilyCode    []string `yaml:"family_code,omitempty"`
	FamilyName    []string `yaml:"family_name,omitempty"`
	SubfamilyCode []string `yaml:"subfamily_code,omitempty"`
	SubfamilyName []string `yaml:"subfamily_name,omitempty"`
}

type CatalogFields struct {
	Code       []string `yaml:"code,omitempty"`
	Name       []string `yaml:"name,omitempty"`
	FamilyCode []string `yaml:"family_code,omitempty"`
}

type NotificationFields struct {
	ID            []string `yaml:"id,omitempty"`
	Title         []string `yaml:"title,omitempty"`
	Success       []string `yaml:"success,omitempty"`
	ExecutionDate []string `yaml:"execution_date,omitempty"`
	Detail        []string `yaml:"detail,omitempty"`
	Content       []string `yaml:"content,omitempty"`
}

type EmailFields struct {
	Address []string `yaml:"address,omitempty"`
}

// Contract is the merged alias table of a Registry. Aliases keep the order of
// the versions they came from, newest first.
type Contract struct {
	Envelopes    []string
	Tender       TenderFields
	Family       CatalogFields
	Subfamily    CatalogFields
	Notification NotificationFields
	Email        EmailFields
}

// LoadRegistry reads a contract registry. An empty path selects the embedded
// contracts.yaml; otherwise the file on disk wins, which lets operators add an
// alias without a rebuild.
func LoadRegistry(path string) (*Registry, error) {
	var (
		data []byte
		err  error
	)
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = contractsYAML.ReadFile("config/contracts.yaml")
	}
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	var reg Registry
	if err := yaml.Unmarshal([]byte(expanded), &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

// DefaultContract merges the embedded registry. It panics if the embedded file
// is broken, which can only happen at build time.
func DefaultContract() *Contract {
	reg, err := LoadRegistry("")
	if err != nil {
		panic("ingest: embedded contract registry: " + err.Error())
	}
	return reg.Merge()
}

// Merge flattens every version into a single alias table.
func (r *Registry) Merge() *Contract {
	c := &Contract{}
	for _, v := range r.Versions {
		c.Envelopes = mergeUnique(c.Envelopes, v.Envelopes)

		c.Tender.ID = mergeUnique(c.Tender.ID, v.Tender.ID)
		c.Tender.Title = mergeUnique(c.Tender.Title, v.Tender.Title)
		c.Tender.Description = mergeUnique(c.Tender.Description, v.Tender.Description)
		c.Tender.TenderType = mergeUnique(c.Tender.TenderType, v.Tender.TenderType)
		c.Tender.PublicationDate = mergeUnique(c.Tender.PublicationDate, v.Tender.PublicationDate)
		c.Tender.ClosingDateTime = mergeUnique(c.Tender.ClosingDateTime, v.Tender.ClosingDateTime)
		c.Tender.Link = mergeUnique(c.Tender.Link, v.Tender.Link)
		c.Tender.Family = mergeUnique(c.Tender.Family, v.Tender.Family)
		c.Tender.Subfamily = mergeUnique(c.Tender.Subfamily, v.Tender.Subfamily)
		c.Tender.FamilyCode = mergeUnique(c.Tender.FamilyCode, v.Tender.FamilyCode)
		c.Tender.FamilyName = mergeUnique(c.Tender.FamilyName, v.Tender.FamilyName)
		c.Tender.SubfamilyCode = mergeUnique(c.Tender.SubfamilyCode, v.Tender.SubfamilyCode)
		c.Tender.SubfamilyName = mergeUnique(c.Tender.SubfamilyName, v.Tender.SubfamilyName)

		c.Family = mergeCatalog(c.Family, v.Family)
		c.Subfamily = mergeCatalog(c.Subfamily, v.Subfamily)

		c.Notification.ID = mergeUnique(c.Notification.ID, v.Notification.ID)
		c.Notification.Title = mergeUnique(c.Notification.Title, v.Notification.Title)
		c.Notification.Success = mergeUnique(c.Notification.Success, v.Notification.Success)
		c.Notification.ExecutionDate = mergeUnique(c.Notification.ExecutionDate, v.Notification.ExecutionDate)
		c.Notification.Detail = mergeUnique(c.Notification.Detail, v.Notification.Detail)
		c.Notification.Content = mergeUnique(c.Notification.Content, v.Notification.Content)

		c.Email.Address = mergeUnique(c.Email.Address, v.Email.Address)
	}
	return c
}

func mergeCatalog(dst, src CatalogFields) CatalogFields {
	return CatalogFields{
		Code:       mergeUnique(dst.Code, src.Code),
		Name:       mergeUnique(dst.Name, src.Name),
		FamilyCode: mergeUnique(dst.FamilyCode, src.FamilyCode),
	}
}
