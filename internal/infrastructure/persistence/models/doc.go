// Package models contains the GORM persistence models for the POS tables.
// Domain types stay free of ORM tags; each model converts with ToDomain and
// FromDomain.
//
// Tables:
//   - products, customers: the local catalog cache
//   - pos_orders: the order ledger
//   - stock_adjustments: the append-only stock audit trail
package models
