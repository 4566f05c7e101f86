// Package filter builds object filters for the SoftLayer API.
//
// A filter is a tree of nodes. Each node is one segment of a property path
// on the queried object, and may carry an operation (the comparison or sort
// to apply) plus an ordered list of options parameterizing it.
//
// # Building
//
// Children are created on first access, so any path the remote API exposes
// can be reached without declaring it:
//
//	root := filter.New()
//	root.Path("virtualGuests.hostname").Contains("web")
//	root.Path("virtualGuests.createDate").DateRange("01/01/2024", "06/30/2024")
//	root.Path("virtualGuests.id").SortDown()
//
// Every operation method returns the node it was called on, so calls chain:
//
//	root.Child("users").Child("status").Child("keyName").Equals("ACTIVE")
//
// The tree is handed to the wire package for encoding.
//
// # Accumulation
//
// Options are never cleared. Calling two operation methods on one node keeps
// the options of both while only the last operation string wins. Callers that
// want such mistakes reported can build from NewStrict instead of New.
package filter
