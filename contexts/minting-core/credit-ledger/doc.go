// Package creditledger contains the mintbox implementation of the prepaid
// credit balance that gates every minting operation.
//
// Accounts are created exactly once per identity and balances only move
// through deposit and debit; the debit path is a single atomic step so the
// orchestration layer never observes a partial subtraction.
package creditledger
