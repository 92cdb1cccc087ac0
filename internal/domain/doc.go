// Package domain contains the core rendering concepts for the pdf-service.
// Keep this package free of transport (HTTP) and infrastructure (Chrome/Redis) concerns.
package domain
