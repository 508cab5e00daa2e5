// Package game models Backloggery game records.
//
// A RawRecord is the open, ordered set of fields the service returned for one
// game. Decorate turns it into a Record in which the categorical fields
// (status, priority, own, phys_digi, region, rating, difficulty) carry their
// human-readable labels instead of integer codes:
//
//	raw, err := game.ParseRawRecord([]byte(`{"status":30,"title":"Foo"}`))
//	if err != nil {
//		return err
//	}
//	rec := game.Decorate(raw)
//	v, _ := rec.Get("status") // "Beaten"
//
// Codes missing from a category's table, and null codes, decode to "".
package game
