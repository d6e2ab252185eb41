// Package model holds the value types shared by the declaration loader, the
// diff engine, and the Provider clients: teams, repositories, branch
// protections and the capability interfaces that decouple the engine from
// any concrete code-hosting Provider.
package model

// UserID is the Provider's opaque numeric account identifier. Declared team
// membership is expressed in terms of UserID, never usernames directly,
// because a username can be renamed while the numeric id is stable.
type UserID uint64

// Username is the Provider's current login for a UserID. It is only known
// once resolved through the username cache built at engine startup.
type Username string

// OrgName is a Provider organization login.
type OrgName string
