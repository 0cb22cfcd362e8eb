// Package domain contains the core business entities of the fund sync
// service: funds, their NAV history points, task records and the task
// type metadata. It is independent of any specific infrastructure or
// delivery mechanism.
package domain
