package database

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go-drink-stand/models"

	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML layout accepted by the seed command:
//
//	drinks:
//	  - name: Classic Matcha Latte
//	    description: Ceremonial grade, oat milk
//	  - name: Hojicha
//	    available: false
//	users:
//	  - Miffy
type SeedFile struct {
	Drinks []SeedDrink `yaml:"drinks"`
	Users  []string    `yaml:"users"`
}

type SeedDrink struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Available defaults to true when omitted.
	Available *bool `yaml:"available"`
}

type SeedResult struct {
	DrinksAdded int
	UsersAdded  int
}

func LoadSeedFile(path string) (SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SeedFile{}, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) (SeedFile, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return SeedFile{}, fmt.Errorf("parse seed file: %w", err)
	}
	for i, d := range seed.Drinks {
		if strings.TrimSpace(d.Name) == "" {
			return SeedFile{}, fmt.Errorf("parse seed file: drink %d has no name", i+1)
		}
	}
	for i, u := range seed.Users {
		if strings.TrimSpace(u) == "" {
			return SeedFile{}, fmt.Errorf("parse seed file: user %d is blank", i+1)
		}
	}
	return seed, nil
}

// Seed adds the drinks and users of seed that the store does not already
// hold. Names are compared case-insensitively, so reseeding is a no-op.
func Seed(ctx context.Context, store Store, seed SeedFile) (SeedResult, error) {
	var result SeedResult

	drinks, err := store.ListDrinks(ctx, DrinkQuery{})
	if err != nil {
		return result, err
	}
	haveDrink := make(map[string]bool, len(drinks))
	for _, d := range drinks {
		haveDrink[strings.ToLower(d.Name)] = true
	}
	for _, sd := range seed.Drinks {
		name := strings.TrimSpace(sd.Name)
		if haveDrink[strings.ToLower(name)] {
			continue
		}
		drink := models.Drink{Name: name, IsAvailable: sd.Available == nil || *sd.Available}
		if desc := strings.TrimSpace(sd.Description); desc != "" {
			drink.Description = &desc
		}
		if err := store.InsertDrink(ctx, &drink); err != nil {
			return result, err
		}
		haveDrink[strings.ToLower(name)] = true
		result.DrinksAdded++
	}

	users, err := store.ListUsers(ctx)
	if err != nil {
		return result, err
	}
	haveUser := make(map[string]bool, len(users))
	for _, u := range users {
		haveUser[strings.ToLower(u.Name)] = true
	}
	for _, name := range seed.Users {
		name = strings.TrimSpace(name)
		if haveUser[strings.ToLower(name)] {
			continue
		}
		if err := store.InsertUser(ctx, &models.User{Name: name}); err != nil {
			return result, err
		}
		haveUser[strings.ToLower(name)] = true
		result.UsersAdded++
	}
	return result, nil
}
