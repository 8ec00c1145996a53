// Command ospfsimg manages OSPFS image files on the host file system,
// using urfave/cli/v2 for subcommand dispatch over flag-driven,
// single-purpose subcommands working over host files.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/dargueta/ospfs"
	"github.com/urfave/cli/v2"
	"github.com/xaionaro-go/bytesextra"
)

func main() {
	app := cli.App{
		Usage: "Create, inspect, and mutate OSPFS image files",
		Commands: []*cli.Command{
			{
				Name:      "format",
				Usage:     "Create or wipe an image",
				Action:    cmdFormat,
				ArgsUsage: "IMAGE_FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "preset"},
					&cli.UintFlag{Name: "blocks"},
					&cli.UintFlag{Name: "inodes"},
				},
			},
			{
				Name:      "ls",
				Usage:     "List a directory's live entries",
				Action:    cmdLs,
				ArgsUsage: "IMAGE_FILE DIR",
			},
			{
				Name:      "cat",
				Usage:     "Print a regular file's contents to stdout",
				Action:    cmdCat,
				ArgsUsage: "IMAGE_FILE FILE",
			},
			{
				Name:      "write",
				Usage:     "Write stdin into a file, creating it if absent",
				Action:    cmdWrite,
				ArgsUsage: "IMAGE_FILE FILE",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "append"},
				},
			},
			{
				Name:      "ln",
				Usage:     "Create a hard link",
				Action:    cmdLn,
				ArgsUsage: "IMAGE_FILE EXISTING NEW",
			},
			{
				Name:      "rm",
				Usage:     "Unlink a file",
				Action:    cmdRm,
				ArgsUsage: "IMAGE_FILE FILE",
			},
			{
				Name:      "fsck",
				Usage:     "Check an image's internal consistency",
				Action:    cmdFsck,
				ArgsUsage: "IMAGE_FILE",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("ospfsimg: %s", err.Error())
	}
}

////////////////////////////////////////////////////////////////////////////
// Image loading / saving

func loadImage(path string) (*ospfs.Image, []byte, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	img, mountErr := ospfs.Mount(buf)
	if mountErr != nil {
		return nil, nil, mountErr
	}
	return img, buf, nil
}

// saveImage flushes buf back to path via a bytesextra-wrapped
// io.ReadWriteSeeker rather than a plain os.WriteFile.
func saveImage(path string, buf []byte) error {
	stream := bytesextra.NewReadWriteSeeker(buf)
	if _, err := stream.Seek(0, io.SeekStart); err != nil {
		return err
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, stream)
	return err
}

////////////////////////////////////////////////////////////////////////////
// Path resolution
//
// FindEntry takes an already-resolved directory inode; the CLI needs
// multi-component resolution, built here from repeated FindEntry calls
// split on "/" and following symlinks via FollowLink, with a cycle bound.

const maxSymlinkHops = 40

func resolvePath(img *ospfs.Image, path string) (*ospfs.Inode, error) {
	return resolvePathFrom(img, 1, path, 0)
}

func resolvePathFrom(img *ospfs.Image, fromIno uint32, path string, hops int) (*ospfs.Inode, error) {
	if hops > maxSymlinkHops {
		return nil, ospfs.ErrLinkCycleDetected
	}

	current, err := img.InodeAt(fromIno)
	if err != nil {
		return nil, err
	}

	path = strings.Trim(path, "/")
	if path == "" {
		return current, nil
	}

	for _, component := range strings.Split(path, "/") {
		if component == "" {
			continue
		}
		d, findErr := ospfs.FindEntry(img, current, component)
		if findErr != nil {
			return nil, findErr
		}
		next, err := img.InodeAt(d.Ino())
		if err != nil {
			return nil, err
		}
		if next.FType() == ospfs.FtypeSymlink {
			target, flErr := ospfs.FollowLink(next, os.Geteuid() == 0)
			if flErr != nil {
				return nil, flErr
			}
			next, err = resolvePathFrom(img, 1, target, hops+1)
			if err != nil {
				return nil, err
			}
		}
		current = next
	}
	return current, nil
}

////////////////////////////////////////////////////////////////////////////
// Subcommands

func cmdFormat(c *cli.Context) error {
	path := c.Args().Get(0)
	if path == "" {
		return fmt.Errorf("usage: ospfsimg format IMAGE_FILE [--preset SLUG | --blocks N --inodes N]")
	}

	var nblocks, ninodes uint32
	if slug := c.String("preset"); slug != "" {
		preset, err := ospfs.GetPreset(slug)
		if err != nil {
			return err
		}
		nblocks, ninodes = preset.TotalBlocks, preset.TotalInodes
	} else {
		nblocks, ninodes = uint32(c.Uint("blocks")), uint32(c.Uint("inodes"))
		if nblocks == 0 || ninodes == 0 {
			return fmt.Errorf("must pass --preset or both --blocks and --inodes")
		}
	}

	buf := make([]byte, uint64(nblocks)*ospfs.BlockSize)
	if err := ospfs.FormatImage(buf, nblocks, ninodes); err != nil {
		return err
	}
	return saveImage(path, buf)
}

func cmdLs(c *cli.Context) error {
	path, dirPath := c.Args().Get(0), c.Args().Get(1)
	img, _, err := loadImage(path)
	if err != nil {
		return err
	}

	dir, err := resolvePath(img, dirPath)
	if err != nil {
		return err
	}

	// The CLI doesn't track parent directories across resolvePath hops, so
	// ".." reports the directory's own inode rather than its true parent.
	parentIno := dir.Num()
	var cursor uint32
	for {
		entry, ok, err := ospfs.Readdir(img, dir, parentIno, cursor)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		fmt.Printf("%6d  %-8s %s\n", entry.Ino, kindLabel(entry.Kind), entry.Name)
		cursor = entry.Cursor
	}
	return nil
}

func kindLabel(k ospfs.DirEntryKind) string {
	switch k {
	case ospfs.KindDirectory:
		return "dir"
	case ospfs.KindSymlink:
		return "symlink"
	default:
		return "regular"
	}
}

func cmdCat(c *cli.Context) error {
	path, filePath := c.Args().Get(0), c.Args().Get(1)
	img, _, err := loadImage(path)
	if err != nil {
		return err
	}

	file, err := resolvePath(img, filePath)
	if err != nil {
		return err
	}

	buf := make([]byte, file.Size())
	n, rdErr := ospfs.Read(img, file, 0, buf)
	if rdErr != nil {
		return rdErr
	}
	_, err = os.Stdout.Write(buf[:n])
	return err
}

func cmdWrite(c *cli.Context) error {
	path, filePath := c.Args().Get(0), c.Args().Get(1)
	img, buf, err := loadImage(path)
	if err != nil {
		return err
	}

	dirPath, name := splitParentAndName(filePath)
	dir, err := resolvePath(img, dirPath)
	if err != nil {
		return err
	}

	file, findErr := ospfs.FindEntry(img, dir, name)
	var fileInode *ospfs.Inode
	if findErr == nil {
		fileInode, err = img.InodeAt(file.Ino())
		if err != nil {
			return err
		}
	} else {
		fileInode, err = ospfs.Create(img, dir, name, ospfs.DefaultFileMode)
		if err != nil {
			return err
		}
	}

	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}
	if _, err := ospfs.Write(img, fileInode, 0, input, c.Bool("append")); err != nil {
		return err
	}
	return saveImage(path, buf)
}

func cmdLn(c *cli.Context) error {
	path, existingPath, newPath := c.Args().Get(0), c.Args().Get(1), c.Args().Get(2)
	img, buf, err := loadImage(path)
	if err != nil {
		return err
	}

	existing, err := resolvePath(img, existingPath)
	if err != nil {
		return err
	}
	dirPath, name := splitParentAndName(newPath)
	dir, err := resolvePath(img, dirPath)
	if err != nil {
		return err
	}
	if err := ospfs.Link(img, dir, existing, name); err != nil {
		return err
	}
	return saveImage(path, buf)
}

func cmdRm(c *cli.Context) error {
	path, filePath := c.Args().Get(0), c.Args().Get(1)
	img, buf, err := loadImage(path)
	if err != nil {
		return err
	}

	dirPath, name := splitParentAndName(filePath)
	dir, err := resolvePath(img, dirPath)
	if err != nil {
		return err
	}
	if err := ospfs.Unlink(img, dir, name); err != nil {
		return err
	}
	return saveImage(path, buf)
}

func cmdFsck(c *cli.Context) error {
	path := c.Args().Get(0)
	img, _, err := loadImage(path)
	if err != nil {
		return err
	}
	if err := ospfs.Check(img); err != nil {
		fmt.Println(err.Error())
		return fmt.Errorf("image has consistency errors")
	}
	fmt.Println("image is consistent")
	return nil
}

func splitParentAndName(path string) (string, string) {
	path = strings.Trim(path, "/")
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}
