package config

import "os"

// SeedAccount describes a bootstrap account read from the environment.
// Missing lists the required variables that were not set.
type SeedAccount struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Missing   []string
}

// Complete reports whether every required variable was present.
func (a SeedAccount) Complete() bool {
	return len(a.Missing) == 0
}

func GetAdminSeed() SeedAccount {
	return readSeedAccount("ADMIN", "Admin", "User")
}

func GetContributorSeed() SeedAccount {
	return readSeedAccount("CONTRIBUTOR", "Contributor", "User")
}

func readSeedAccount(prefix, firstName, lastName string) SeedAccount {
	a := SeedAccount{
		Email:     os.Getenv(prefix + "_EMAIL"),
		Password:  os.Getenv(prefix + "_PASSWORD"),
		FirstName: envOr(prefix+"_FIRSTNAME", firstName),
		LastName:  envOr(prefix+"_LASTNAME", lastName),
	}
	if a.Email == "" {
		a.Missing = append(a.Missing, prefix+"_EMAIL")
	}
	if a.Password == "" {
		a.Missing = append(a.Missing, prefix+"_PASSWORD")
	}
	return a
}
