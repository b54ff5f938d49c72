// Package models defines the core domain models for fistein.
//
// # Aggregates
//
// A Group owns its members and its expenses; an Expense owns its shares.
// Relationships are expressed with ID strings only, never back-pointers:
//   - GroupMember references a User by UserID
//   - Expense references its Group and payer by ID
//   - Share references its Expense and member by ID
//
// Cross-references are resolved by lookup in the store or in a ledger
// snapshot. Deleting an Expense removes its shares; that cascade is the
// store's job.
//
// # Money
//
// Every amount is a money.Money (fixed-point, two fractional digits) and
// every percentage a money.Percent. Nothing in this package uses floats.
package models
