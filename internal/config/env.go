package config

import "github.com/joho/godotenv"

// LoadEnv loads variables from a .env file in the working directory.
// Variables already set in the environment win. The returned error satisfies
// os.IsNotExist when there is no .env file.
func LoadEnv() error {
	return godotenv.Load()
}
