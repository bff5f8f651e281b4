package database

import (
	"log"
	"sync"

	"github.com/gocql/gocql"
)

var (
	// Prepared statements pour les requêtes fréquentes
	stmtGetCustomerByEmail    *gocql.Query
	stmtGetCustomerByID       *gocql.Query
	stmtInsertCustomer        *gocql.Query
	stmtInsertCustomerByEmail *gocql.Query

	preparedOnce sync.Once
)

// InitPreparedStatements initialise les prepared statements
func InitPreparedStatements() {
	preparedOnce.Do(func() {
		session, err := GetCustomersSession()
		if err != nil {
			log.Printf("⚠️ Impossible d'initialiser les prepared statements: %v", err)
			return
		}

		// Requête pour récupérer customer_id par email
		stmtGetCustomerByEmail = session.Query("SELECT customer_id FROM customers_by_email WHERE email = ?")

		// Requête pour récupérer un client par ID
		stmtGetCustomerByID = session.Query(`SELECT email, password, name, phone, role, provider, provider_id, admin_id
			FROM customers WHERE customer_id = ?`)

		// Requête pour insérer un client
		stmtInsertCustomer = session.Query(`INSERT INTO customers (customer_id, email, password, name, phone, role, provider, provider_id, admin_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

		// Requête pour insérer dans customers_by_email
		stmtInsertCustomerByEmail = session.Query("INSERT INTO customers_by_email (email, customer_id) VALUES (?, ?)")

		log.Println("✅ Prepared statements initialisés")
	})
}

func GetPreparedGetCustomerByEmail() *gocql.Query {
	return stmtGetCustomerByEmail
}

func GetPreparedGetCustomerByID() *gocql.Query {
	return stmtGetCustomerByID
}

func GetPreparedInsertCustomer() *gocql.Query {
	return stmtInsertCustomer
}

func GetPreparedInsertCustomerByEmail() *gocql.Query {
	return stmtInsertCustomerByEmail
}
