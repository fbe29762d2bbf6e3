// Package utils provides small type conversion helpers.
//
// Record field values travel as `any` through the upsert field-access
// contract, and JSON decoding produces float64 for every number. These
// helpers coerce such values into the concrete types model setters expect.
package utils
