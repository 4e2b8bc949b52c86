// Package models contains the GORM models of the mutation journal.
// They are separate from the order store's records so the application layer stays
// free of ORM tags; repositories convert between the two.
package models
