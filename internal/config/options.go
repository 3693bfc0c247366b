package config

// Options is the fully resolved save option set. All fields carry concrete
// values; override layers live in OptionsPatch.
type Options struct {
	SaveDir SaveDirOptions
	File    FileOptions
}

// SaveDirOptions controls where downloaded files are placed.
type SaveDirOptions struct {
	// Root is the base directory for all saved files.
	Root string

	// SubDirs is the ordered list of sub-directory name templates joined
	// under Root. Each entry may reference metadata fields as {{key}}.
	SubDirs []string
}

// FileOptions controls how individual files are saved.
type FileOptions struct {
	// NameLevel is the number of trailing URL path segments that form the
	// filename, joined with "_". 0 keeps all segments.
	NameLevel int

	// Overwrite allows replacing a file that already exists at the
	// computed path. When false the file is skipped without fetching.
	Overwrite bool

	// MinSize discards fetched payloads smaller than this many bytes.
	MinSize int64

	// Exif writes a <name>.exif.json sidecar next to saved files that
	// carry EXIF data.
	Exif bool
}

// DefaultOptions returns the built-in save options.
func DefaultOptions() Options {
	return Options{
		SaveDir: SaveDirOptions{Root: DefaultSaveRoot},
		File:    FileOptions{NameLevel: DefaultNameLevel, MinSize: DefaultMinSize},
	}
}

// OptionsPatch is a partial Options override, used both for the job file's
// global options section and for per-extractor overrides. Nil fields mean
// "not set here, fall through to the level below". Slice fields replace
// the lower level wholesale when present; they are never concatenated.
type OptionsPatch struct {
	SaveDir *SaveDirPatch `yaml:"saveDir,omitempty"`
	File    *FilePatch    `yaml:"file,omitempty"`
}

// SaveDirPatch overrides SaveDirOptions fields.
type SaveDirPatch struct {
	Root *string `yaml:"root,omitempty"`

	// SubDirs replaces the whole template list when non-nil. An explicit
	// empty list ("subDirs: []") clears the lower level.
	SubDirs []string `yaml:"subDirs,omitempty"`
}

// FilePatch overrides FileOptions fields.
type FilePatch struct {
	NameLevel *int   `yaml:"nameLevel,omitempty"`
	Overwrite *bool  `yaml:"overwrite,omitempty"`
	MinSize   *int64 `yaml:"minSize,omitempty"`
	Exif      *bool  `yaml:"exif,omitempty"`
}

// With returns a copy of o with every set field of p applied on top. A nil
// patch returns an independent copy of o unchanged. This is the single
// resolution step used for both defaults+global and global+extractor.
func (o Options) With(p *OptionsPatch) Options {
	out := o
	out.SaveDir.SubDirs = append([]string(nil), o.SaveDir.SubDirs...)
	if p == nil {
		return out
	}
	if sd := p.SaveDir; sd != nil {
		if sd.Root != nil {
			out.SaveDir.Root = *sd.Root
		}
		if sd.SubDirs != nil {
			out.SaveDir.SubDirs = append([]string(nil), sd.SubDirs...)
		}
	}
	if f := p.File; f != nil {
		if f.NameLevel != nil {
			out.File.NameLevel = *f.NameLevel
		}
		if f.Overwrite != nil {
			out.File.Overwrite = *f.Overwrite
		}
		if f.MinSize != nil {
			out.File.MinSize = *f.MinSize
		}
		if f.Exif != nil {
			out.File.Exif = *f.Exif
		}
	}
	return out
}

// validate checks an options patch for values that are invalid at any
// level.
func (p *OptionsPatch) validate() error {
	if p == nil {
		return nil
	}
	if sd := p.SaveDir; sd != nil && sd.Root != nil && *sd.Root == "" {
		return ErrNoSaveRoot
	}
	if f := p.File; f != nil {
		if f.NameLevel != nil && *f.NameLevel < 0 {
			return ErrInvalidNameLevel
		}
		if f.MinSize != nil && *f.MinSize < 0 {
			return ErrInvalidMinSize
		}
	}
	return nil
}
