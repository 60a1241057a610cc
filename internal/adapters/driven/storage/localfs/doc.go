// Package localfs implements the local directory storage backend.
//
// A DirectoryHandle is the capability for a user-picked directory. Its
// read-write grant lives only in the running process: handles picked in this
// session start granted, handles rehydrated from the handle cache start in the
// prompt state and must be re-approved by the user before writing. The grant
// is always checked together with what the operating system allows, so a
// directory that was removed or made read-only is never reported as usable.
//
// Writes go to a temporary file that is renamed over the target while holding
// a lock file at the storage root, so readers never observe a partial file.
package localfs
