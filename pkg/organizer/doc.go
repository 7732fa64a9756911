// Package organizer holds the in-memory personal organizer model: todos,
// shopping items, notes, custom lists, projects, contacts and calendar
// events, plus the mutation API the voice command handlers drive.
//
// All mutations go through a single mutex so a dispatch batch sees its own
// earlier writes. Mutation methods return a *MutationResult carrying the new
// item ID (for creations) and a speakable confirmation message.
package organizer
