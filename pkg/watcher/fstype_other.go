//go:build !linux

package watcher

// DetectFilesystemType cannot classify filesystems on this platform.
func DetectFilesystemType(string) FilesystemType {
	return FSTypeUnknown
}
