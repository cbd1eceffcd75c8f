package authRepository

const (
	queryGetById = `
SELECT id, email, name, created_at, updated_at
FROM users
    WHERE id = :id`

	queryGetByEmail = `
SELECT id, email, name, created_at, updated_at
FROM users
    WHERE lower(email) = lower(:email)`
)
