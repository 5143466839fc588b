// Package content swaps the game's coin sprites and sounds for rupee ones.
// Every file it overwrites is first copied into a backup directory so the
// original content can be restored.
package content

import (
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/dcrodman/rupeepatch/internal/rupee"
	"github.com/dcrodman/rupeepatch/internal/xnb"
)

const (
	imagesDir = "Images"
	soundsDir = "Sounds"
)

// ImageType is the kind of sprite a rupee asset replaces.
type ImageType string

const (
	Animation ImageType = "Animation"
	Bullet    ImageType = "Bullet"
	Dust      ImageType = "Dust"
	Falling   ImageType = "Falling"
	Item      ImageType = "Item"
	Portal    ImageType = "Portal"
	Tile      ImageType = "Tile"
)

// AssetName is the name of the sprite of type t in colour c, without its
// extension.
func AssetName(t ImageType, c rupee.Color) string {
	return fmt.Sprintf("Rupee%s%s", t, c)
}

// Sprites that have a single rupee version.
const (
	RupeeGun   = "RupeeGun"
	LuckyRupee = "LuckyRupee"
	RupeeRing  = "RupeeRing"
)

// FilesToBackup lists every content file Replace may overwrite, relative to
// the content directory.
var FilesToBackup = []string{
	"Images/Coin_0.xnb",
	"Images/Coin_1.xnb",
	"Images/Coin_2.xnb",
	"Images/Coin_3.xnb",
	"Images/Dust.xnb",
	"Images/Item_71.xnb",
	"Images/Item_72.xnb",
	"Images/Item_73.xnb",
	"Images/Item_74.xnb",
	"Images/Item_855.xnb",
	"Images/Item_905.xnb",
	"Images/Item_3034.xnb",
	"Images/Projectile_158.xnb",
	"Images/Projectile_159.xnb",
	"Images/Projectile_160.xnb",
	"Images/Projectile_161.xnb",
	"Images/Projectile_411.xnb",
	"Images/Projectile_412.xnb",
	"Images/Projectile_413.xnb",
	"Images/Projectile_414.xnb",
	"Images/Projectile_518.xnb",
	"Images/Tiles_330.xnb",
	"Images/Tiles_331.xnb",
	"Images/Tiles_332.xnb",
	"Images/Tiles_333.xnb",
	"Sounds/Coin_0.xnb",
	"Sounds/Coin_1.xnb",
	"Sounds/Coin_2.xnb",
	"Sounds/Coin_3.xnb",
	"Sounds/Coin_4.xnb",
	"Sounds/Coins.xnb",
}

// Coin dust sprites sit in a row on the dust sheet.
var (
	dustOrigin  = image.Pt(440, 60)
	dustSpacing = 10
)

type Options struct {
	// ContentDir is the game's Content directory.
	ContentDir string
	// BackupDir receives the original files. Defaults to BackupContent next
	// to ContentDir.
	BackupDir string
	// AssetsDir holds the rupee PNG sprites and WAV sounds.
	AssetsDir string
	Settings  Settings
	Logger    *zap.SugaredLogger
}

// Replacer performs content backup, restore and replacement for one game
// install. Decoded assets are cached across calls.
type Replacer struct {
	opts   Options
	assets *assets
	logger *zap.SugaredLogger
}

func NewReplacer(opts Options) *Replacer {
	if opts.BackupDir == "" {
		opts.BackupDir = filepath.Join(filepath.Dir(opts.ContentDir), "BackupContent")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Replacer{
		opts:   opts,
		assets: &assets{dir: opts.AssetsDir, cache: NewCache()},
		logger: logger,
	}
}

func (r *Replacer) contentPath(file string) string {
	return filepath.Join(r.opts.ContentDir, filepath.FromSlash(file))
}

func (r *Replacer) backupPath(file string) string {
	return filepath.Join(r.opts.BackupDir, filepath.FromSlash(file))
}

// Backup copies each content file into the backup directory unless a backup
// of it already exists. Files missing from the content directory are skipped.
func (r *Replacer) Backup() error {
	for _, dir := range []string{imagesDir, soundsDir} {
		if err := os.MkdirAll(filepath.Join(r.opts.BackupDir, dir), 0755); err != nil {
			return errors.Wrap(err, "creating backup directory")
		}
	}
	copied := 0
	for _, file := range FilesToBackup {
		if exists(r.backupPath(file)) || !exists(r.contentPath(file)) {
			continue
		}
		if err := copyFile(r.contentPath(file), r.backupPath(file)); err != nil {
			return err
		}
		copied++
	}
	r.logger.Infow("backed up content", "dir", r.opts.BackupDir, "files", copied)
	return nil
}

// Restore copies every backed up file over the content directory and returns
// the files that had no backup.
func (r *Replacer) Restore() ([]string, error) {
	var missing []string
	for _, file := range FilesToBackup {
		if !exists(r.backupPath(file)) {
			missing = append(missing, file)
			continue
		}
		if err := copyFile(r.backupPath(file), r.contentPath(file)); err != nil {
			return missing, err
		}
	}
	if len(missing) > 0 {
		r.logger.Warnw("content backups missing", "files", missing)
	}
	return missing, nil
}

type imageReplacement struct {
	asset  string
	target string
}

type soundReplacement struct {
	asset  string
	target string
}

func (r *Replacer) imageReplacements() []imageReplacement {
	s := r.opts.Settings
	colors := []rupee.Color{s.Palette.Copper, s.Palette.Silver, s.Palette.Gold, s.Palette.Platinum}

	var out []imageReplacement
	for _, set := range []struct {
		typ     ImageType
		targets [4]string
	}{
		{Animation, [4]string{"Coin_0", "Coin_1", "Coin_2", "Coin_3"}},
		{Item, [4]string{"Item_71", "Item_72", "Item_73", "Item_74"}},
		{Bullet, [4]string{"Projectile_158", "Projectile_159", "Projectile_160", "Projectile_161"}},
		{Falling, [4]string{"Projectile_411", "Projectile_412", "Projectile_413", "Projectile_414"}},
		{Tile, [4]string{"Tiles_330", "Tiles_331", "Tiles_332", "Tiles_333"}},
	} {
		for i, target := range set.targets {
			out = append(out, imageReplacement{AssetName(set.typ, colors[i]), target})
		}
	}

	if s.CoinGun {
		out = append(out, imageReplacement{RupeeGun, "Item_905"})
	}
	if s.LuckyCoin {
		out = append(out, imageReplacement{LuckyRupee, "Item_855"})
	}
	if s.CoinRing {
		out = append(out, imageReplacement{RupeeRing, "Item_3034"})
	}
	if s.CoinPortal {
		out = append(out, imageReplacement{AssetName(Portal, s.Palette.Gold), "Projectile_518"})
	}
	return out
}

func soundReplacements() []soundReplacement {
	return []soundReplacement{
		{"RupeeCollect1", "Coin_0"},
		{"RupeeCollect1", "Coin_1"},
		{"RupeeCollect1", "Coin_2"},
		{"RupeeCollect2", "Coin_3"},
		{"RupeeCollect2", "Coin_4"},
		{"RupeePlace", "Coins"},
	}
}

func (r *Replacer) dustAssets() []string {
	p := r.opts.Settings.Palette
	return []string{
		AssetName(Dust, p.Copper),
		AssetName(Dust, p.Silver),
		AssetName(Dust, p.Gold),
		AssetName(Dust, p.Platinum),
	}
}

// preload decodes every asset the current settings need so a missing or
// broken asset is reported before any content is touched.
func (r *Replacer) preload() error {
	for _, rep := range r.imageReplacements() {
		if _, err := r.assets.image(rep.asset); err != nil {
			return err
		}
	}
	for _, name := range r.dustAssets() {
		if _, err := r.assets.image(name); err != nil {
			return err
		}
	}
	for _, rep := range soundReplacements() {
		if _, err := r.assets.sound(rep.asset); err != nil {
			return err
		}
	}
	return nil
}

// Replace backs up the content, restores it to its original state and then
// writes the rupee sprites and sounds selected by the settings.
func (r *Replacer) Replace() error {
	if err := r.preload(); err != nil {
		return err
	}
	if err := r.Backup(); err != nil {
		return err
	}
	if _, err := r.Restore(); err != nil {
		return err
	}

	for _, rep := range r.imageReplacements() {
		img, _ := r.assets.image(rep.asset)
		path := filepath.Join(r.opts.ContentDir, imagesDir, rep.target+".xnb")
		if err := xnb.WriteImageFile(path, img); err != nil {
			return errors.Wrapf(err, "replacing %s", rep.target)
		}
		r.logger.Debugw("replaced sprite", "target", rep.target, "asset", rep.asset)
	}

	if err := r.replaceDust(); err != nil {
		return err
	}

	for _, rep := range soundReplacements() {
		pcm, _ := r.assets.sound(rep.asset)
		path := filepath.Join(r.opts.ContentDir, soundsDir, rep.target+".xnb")
		if err := xnb.WriteSoundFile(path, pcm); err != nil {
			return errors.Wrapf(err, "replacing sound %s", rep.target)
		}
		r.logger.Debugw("replaced sound", "target", rep.target, "asset", rep.asset)
	}

	r.logger.Infow("replaced content", "dir", r.opts.ContentDir, "palette", r.opts.Settings.Palette)
	return nil
}

// replaceDust draws the four coin dust sprites over the dust sheet.
func (r *Replacer) replaceDust() error {
	path := filepath.Join(r.opts.ContentDir, imagesDir, "Dust.xnb")
	sheet, err := xnb.ReadImageFile(path)
	if err != nil {
		return errors.Wrap(err, "replacing dust")
	}

	at := dustOrigin
	for _, name := range r.dustAssets() {
		sprite, _ := r.assets.image(name)
		b := sprite.Bounds()
		draw.Draw(sheet, image.Rectangle{Min: at, Max: at.Add(b.Size())}, sprite, b.Min, draw.Over)
		at.X += dustSpacing
	}
	return xnb.WriteImageFile(path, sheet)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "copying %s", src)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "copying to %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrapf(err, "copying %s to %s", src, dst)
	}
	return out.Close()
}
