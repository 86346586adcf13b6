package config

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./matjip.db"

	// DefaultDaeguFoodBaseURL is the Daegu restaurant open-data endpoint
	DefaultDaeguFoodBaseURL = "https://www.daegufood.go.kr/kor/api/tasty.html"
)
