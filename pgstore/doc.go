// Package pgstore implements the account and role persistence contracts on
// PostgreSQL through database/sql with the pgx driver.
//
// The failed-login counter and conditional lock are written in a single
// UPDATE so concurrent failures against one account never lose an
// increment or observe a half-applied lock.
package pgstore
