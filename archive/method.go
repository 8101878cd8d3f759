package archive

import (
	"fmt"
)

// Method is one of the closed set of archive methods that can be used to stream a directory.
//
// The zero value is not a valid Method.
type Method int

const (
	// TarGz is a gzip-compressed tarball.
	TarGz Method = iota + 1
	// Tar is a regular tarball.
	Tar
	// Zip is a regular ZIP archive with deflate-compressed entries.
	Zip
)

// ContentEncoding is the transport-level compression marker of an archive method.
type ContentEncoding string

const (
	// Identity means the archive is sent as is.
	Identity ContentEncoding = "identity"
	// Gzip means the container stream is gzip-compressed.
	Gzip ContentEncoding = "gzip"
)

// Methods returns all archive methods.
func Methods() []Method {
	return []Method{TarGz, Tar, Zip}
}

// ParseMethod returns the Method with the given snake_case name.
func ParseMethod(name string) (Method, error) {
	switch name {
	case "tar_gz":
		return TarGz, nil
	case "tar":
		return Tar, nil
	case "zip":
		return Zip, nil
	default:
		return 0, fmt.Errorf(`unknown archive method "%s"`, name)
	}
}

// String returns the snake_case name of the method, which can be parsed back with ParseMethod.
func (m Method) String() string {
	switch m {
	case TarGz:
		return "tar_gz"
	case Tar:
		return "tar"
	case Zip:
		return "zip"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// Ext returns the file name extension (without the leading dot) of archives created with this method.
func (m Method) Ext() string {
	switch m {
	case TarGz:
		return "tar.gz"
	case Tar:
		return "tar"
	case Zip:
		return "zip"
	default:
		panic(fmt.Sprintf("unknown archive method: %v", m))
	}
}

// ContentType returns the MIME type of archives created with this method.
func (m Method) ContentType() string {
	switch m {
	case TarGz:
		return "application/gzip"
	case Tar:
		return "application/tar"
	case Zip:
		return "application/zip"
	default:
		panic(fmt.Sprintf("unknown archive method: %v", m))
	}
}

// ContentEncoding returns Gzip if the container is wrapped in a gzip stream, Identity otherwise.
//
// Zip returns Identity because its entries are compressed inside the container.
func (m Method) ContentEncoding() ContentEncoding {
	switch m {
	case TarGz:
		return Gzip
	case Tar:
		return Identity
	case Zip:
		return Identity
	default:
		panic(fmt.Sprintf("unknown archive method: %v", m))
	}
}

// IsEnabled returns whether the method is enabled per the given toggles.
func (m Method) IsEnabled(e EnabledMethods) bool {
	switch m {
	case TarGz:
		return e.TarGz
	case Tar:
		return e.Tar
	case Zip:
		return e.Zip
	default:
		panic(fmt.Sprintf("unknown archive method: %v", m))
	}
}

// Filename returns the name of the archive that CreateArchive would produce for the given directory.
//
// For example, Filename("a/b/c") returns "c.tar.gz" for TarGz. The returned error is the same *InvalidPathError
// that CreateArchive would return if the directory name cannot be used as the root entry.
func (m Method) Filename(dir string) (string, error) {
	name, err := rootName(dir)
	if err != nil {
		return "", err
	}

	return name + "." + m.Ext(), nil
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	switch m {
	case TarGz, Tar, Zip:
		return []byte(m.String()), nil
	default:
		return nil, fmt.Errorf("unknown archive method: %v", m)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(text []byte) (err error) {
	*m, err = ParseMethod(string(text))
	return
}

// UnmarshalFlag implements github.com/jessevdk/go-flags Unmarshaler so that Method can be used as an option.
func (m *Method) UnmarshalFlag(value string) (err error) {
	*m, err = ParseMethod(value)
	return
}

// EnabledMethods contains one independent toggle per archive method.
//
// The toggles only gate availability; they never change the bytes that a method produces.
type EnabledMethods struct {
	Tar   bool
	TarGz bool
	Zip   bool
}

// Methods returns the enabled methods in the same order as the package-level Methods.
func (e EnabledMethods) Methods() []Method {
	methods := make([]Method, 0, 3)
	for _, m := range Methods() {
		if m.IsEnabled(e) {
			methods = append(methods, m)
		}
	}

	return methods
}
