package catalogs

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

// AirID is always palette id 0.
const (
	AirName = "voxel:air"
	AirID   = uint16(0)
)

//go:embed defaults/*.json
var defaultFS embed.FS

type Catalogs struct {
	Blocks BlockCatalog
	Items  ItemCatalog
}

type BlockCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]BlockDef
	PaletteDigest string
	DefsDigest    string
}

type BlockDef struct {
	ID        string `json:"id"`
	Solid     bool   `json:"solid"`
	Breakable bool   `json:"breakable"`
	Hardness  int    `json:"hardness,omitempty"`
	Tool      string `json:"tool,omitempty"` // "pickaxe","axe","shovel" or empty for hand
	Falling   bool   `json:"falling,omitempty"`
	Liquid    bool   `json:"liquid,omitempty"`
	DropsItem string `json:"drops_item,omitempty"`
}

type ItemCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]ItemDef
	PaletteDigest string
	DefsDigest    string
}

type ItemDef struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"` // "BLOCK","TOOL","MATERIAL"
	PlaceAs string `json:"place_as,omitempty"`
	Colored bool   `json:"colored,omitempty"`
	Tool    string `json:"tool,omitempty"`
	Tier    int    `json:"tier,omitempty"`
}

// Load reads blocks.json and items.json from configDir.
func Load(configDir string) (*Catalogs, error) {
	return loadFS(os.DirFS(configDir), ".")
}

// LoadDefault returns the catalogs compiled into the binary.
func LoadDefault() (*Catalogs, error) {
	return loadFS(defaultFS, "defaults")
}

func loadFS(fsys fs.FS, dir string) (*Catalogs, error) {
	var c Catalogs
	raw, err := fs.ReadFile(fsys, path.Join(dir, "blocks.json"))
	if err != nil {
		return nil, err
	}
	if err := loadBlocks(raw, &c.Blocks); err != nil {
		return nil, err
	}
	raw, err = fs.ReadFile(fsys, path.Join(dir, "items.json"))
	if err != nil {
		return nil, err
	}
	if err := loadItems(raw, &c.Items); err != nil {
		return nil, err
	}
	return &c, nil
}

// ShortName strips the namespace tag ("voxel:coal_ore" -> "coal_ore") and lowercases
// the remainder. Settings keys are built from short names.
func ShortName(name string) string {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(name)
}

// Name returns the palette name for id, or "" when the id is unknown.
func (b *BlockCatalog) Name(id uint16) string {
	if int(id) >= len(b.Palette) {
		return ""
	}
	return b.Palette[id]
}

func (b *BlockCatalog) Def(id uint16) (BlockDef, bool) {
	d, ok := b.Defs[b.Name(id)]
	return d, ok
}

func (b *BlockCatalog) MustID(name string) uint16 {
	id, ok := b.Index[name]
	if !ok {
		panic(fmt.Sprintf("catalogs: unknown block %q", name))
	}
	return id
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadBlocks(raw []byte, out *BlockCatalog) error {
	out.DefsDigest = sha256Hex(raw)

	var defs []BlockDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("blocks.json: %w", err)
	}
	out.Defs = map[string]BlockDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("blocks.json: empty id")
		}
		out.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if _, ok := out.Defs[AirName]; !ok {
		return fmt.Errorf("blocks.json: missing %s", AirName)
	}
	ids = append([]string{AirName}, filterOut(ids, AirName)...)

	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

func loadItems(raw []byte, out *ItemCatalog) error {
	out.DefsDigest = sha256Hex(raw)

	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.Defs = map[string]ItemDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("items.json: empty id")
		}
		out.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

func filterOut(in []string, remove string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == remove {
			continue
		}
		out = append(out, s)
	}
	return out
}
