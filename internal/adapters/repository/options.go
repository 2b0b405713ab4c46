package repository

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithIndent pretty-prints documents with the given indent string.
func WithIndent(indent string) Option {
	return func(s *FileStore) {
		s.indent = indent
	}
}
