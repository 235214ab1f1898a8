package repository

import (
	"database/sql"
	"log"

	"golang.org/x/crypto/bcrypt"
)

func CreateTableIfNotExists(db *sql.DB) {
	query := `
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    email VARCHAR(150) NOT NULL UNIQUE,
    password VARCHAR(255) NOT NULL,
    firstname VARCHAR(150) NOT NULL,
    is_admin BOOLEAN NOT NULL DEFAULT FALSE,
    role VARCHAR(20) NOT NULL DEFAULT 'user',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tasks (
    id SERIAL PRIMARY KEY,
    title VARCHAR(200) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    assigned_to INT REFERENCES users (id),
    status VARCHAR(50) NOT NULL DEFAULT 'assigned',
    priority VARCHAR(20) NOT NULL DEFAULT 'normal',
    deadline TIMESTAMP,
    file_name VARCHAR(300),
    last_edited_by INT,
    last_edited_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS notifications (
    id SERIAL PRIMARY KEY,
    user_id INT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    title VARCHAR(200) NOT NULL,
    message VARCHAR(2000) NOT NULL,
    is_read BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS notes (
    id SERIAL PRIMARY KEY,
    user_id INT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    data VARCHAR(10000) NOT NULL DEFAULT '',
    date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	if _, err := db.Exec(query); err != nil {
		log.Fatalf("Error creating tables: %v", err)
	}
}

// CreateAdminUser seeds a default administrator account. Intended for
// first-run setups only.
func CreateAdminUser(db *sql.DB) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Error hashing password: %v", err)
	}

	query := "INSERT INTO users (email, password, firstname, is_admin, role) VALUES ($1, $2, $3, TRUE, 'admin')"
	if _, err := db.Exec(query, "admin@mail.com", string(hashedPassword), "Admin"); err != nil {
		log.Fatalf("Error inserting admin user: %v", err)
	}
}

func DeleteAllTable(db *sql.DB) {
	query := `
    DROP TABLE IF EXISTS notes;
    DROP TABLE IF EXISTS notifications;
    DROP TABLE IF EXISTS tasks;
    DROP TABLE IF EXISTS users;
    `

	if _, err := db.Exec(query); err != nil {
		log.Fatalf("Error deleting tables: %v", err)
	}
}
