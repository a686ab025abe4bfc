// Package policy holds the pure rules of the drink stand: how orders are
// created and move through their lifecycle, which drinks are shown and in
// what order, and which customer names may order.
//
// Nothing here touches the store. Callers load whatever state a rule needs
// (the drink catalog, the approved names) and pass it in, so every function
// is synchronous and safe to call from any goroutine.
package policy
