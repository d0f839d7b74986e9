// Package seed loads reference data (departments, dropdown catalogs,
// default kits, bootstrap users and signatures) from a YAML file.
package seed

import (
	"errors"
	"fmt"
	"os"

	"lab-sample-intake/internal/models"
	"lab-sample-intake/internal/repository"
	"lab-sample-intake/pkg/utils"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type File struct {
	Departments []Department `yaml:"departments"`
	Users       []User       `yaml:"users"`
	Signatures  []Signature  `yaml:"signatures"`
}

type Department struct {
	Code        string            `yaml:"code"`
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Diseases    []string          `yaml:"diseases"`
	KitTypes    []string          `yaml:"kit_types"`
	SampleTypes []string          `yaml:"sample_types"`
	DefaultKits map[string]string `yaml:"default_kits"`
}

type User struct {
	Username string `yaml:"username"`
	FullName string `yaml:"full_name"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type Signature struct {
	Name  string `yaml:"name"`
	PIN   string `yaml:"pin"`
	Image string `yaml:"image"`
}

// Load reads and checks a seed file
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	for i, d := range f.Departments {
		if d.Code == "" || d.Name == "" {
			return nil, fmt.Errorf("department %d: code and name are required", i+1)
		}
		for disease := range d.DefaultKits {
			if !contains(d.Diseases, disease) {
				return nil, fmt.Errorf("department %s: default kit for unknown disease %q", d.Code, disease)
			}
		}
	}
	for _, s := range f.Signatures {
		if !utils.ValidPIN(s.PIN) {
			return nil, fmt.Errorf("signature %s: PIN must be 6 to 8 digits", s.Name)
		}
	}
	return &f, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Apply writes f into the database in one transaction. Existing rows are
// kept; users and signatures that already exist are left untouched.
func Apply(db *gorm.DB, f *File, logger *zap.Logger) error {
	return db.Transaction(func(tx *gorm.DB) error {
		depts := repository.NewDepartmentRepo(tx)
		catalog := repository.NewCatalogRepo(tx)
		users := repository.NewUserRepo(tx)
		sigs := repository.NewSignatureRepo(tx)

		for _, d := range f.Departments {
			dept := &models.Department{Code: d.Code, Name: d.Name, Description: d.Description, IsActive: true}
			if err := depts.UpsertDepartment(dept); err != nil {
				return fmt.Errorf("department %s: %w", d.Code, err)
			}
			for _, name := range d.Diseases {
				if err := catalog.EnsureDisease(dept.ID, name); err != nil {
					return err
				}
			}
			for _, name := range d.KitTypes {
				if err := catalog.EnsureKitType(dept.ID, name); err != nil {
					return err
				}
			}
			for _, name := range d.SampleTypes {
				if err := catalog.EnsureSampleType(dept.ID, name); err != nil {
					return err
				}
			}
			for disease, kit := range d.DefaultKits {
				if err := catalog.SetDefaultKit(dept.ID, disease, kit); err != nil {
					return err
				}
			}
			logger.Info("seeded department", zap.String("code", d.Code), zap.Int("diseases", len(d.Diseases)))
		}

		for _, u := range f.Users {
			_, err := users.FindUserByUsername(u.Username)
			if err == nil {
				continue
			}
			if !errors.Is(err, repository.ErrUserNotFound) {
				return err
			}
			hash, err := utils.HashPassword(u.Password)
			if err != nil {
				return err
			}
			role := u.Role
			if role == "" {
				role = models.RoleUser
			}
			if err := users.CreateUser(&models.User{Username: u.Username, FullName: u.FullName, PasswordHash: hash, Role: role}); err != nil {
				return fmt.Errorf("user %s: %w", u.Username, err)
			}
			logger.Info("seeded user", zap.String("username", u.Username), zap.String("role", role))
		}

		for _, s := range f.Signatures {
			_, err := sigs.GetSignatureByName(s.Name)
			if err == nil {
				continue
			}
			if !errors.Is(err, repository.ErrSignatureNotFound) {
				return err
			}
			hash, err := utils.HashPassword(s.PIN)
			if err != nil {
				return err
			}
			if err := sigs.CreateSignature(&models.Signature{Name: s.Name, PinHash: hash, SignatureImage: s.Image, IsActive: true}); err != nil {
				return fmt.Errorf("signature %s: %w", s.Name, err)
			}
			logger.Info("seeded signature", zap.String("name", s.Name))
		}
		return nil
	})
}
