package highscore

import "fmt"

// Open picks a store implementation by name: memory, file or postgres.
func Open(driver, filePath, dsn string) (Store, error) {
	switch driver {
	case "memory":
		return NewMemoryStore(), nil
	case "", "file":
		return NewFileStore(filePath), nil
	case "postgres":
		if dsn == "" {
			return nil, fmt.Errorf("postgres score store needs PICKEM_DATABASE_URL")
		}
		return OpenGormStore(dsn)
	default:
		return nil, fmt.Errorf("unknown score store %q", driver)
	}
}
