// Package integration contains the Integration bounded context.
// It describes the commerce platform that owns products, customers and orders.
//
// Key concepts:
//   - CommercePlatform: Port interface for the upstream store REST API
//   - PlatformProduct / PlatformCustomer / PlatformOrder: typed upstream schemas
//   - BuildOrderRequest: maps a committed POS order to the upstream order-creation shape,
//     tagged with the local order id so a re-push can be detected
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
