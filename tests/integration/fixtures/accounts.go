package fixtures

const (
	ClientEmail   = "a@x.com"
	OwnerEmail    = "owner@eats.com"
	DeliveryEmail = "courier@eats.com"
	OtherEmail    = "other@eats.com"
	InvalidEmail  = "notanemail"

	Password      = "pw1"
	WrongPassword = "wrong"

	// LegacyPassword and LegacyPassHash are a cost 12 bcrypt pair, as stored by older deployments.
	LegacyPassword = "password"
	LegacyPassHash = "$2a$12$HoLMDChGzw26WRGqAdzeL.ZzauFTKP5tg/5d5VSBLsQvUuEBFsvgG"

	// ValidPassHash is any well-formed digest, for tests that never compare it.
	ValidPassHash = LegacyPassHash

	TokenSecret = "test-token-secret-0123456789"
)
