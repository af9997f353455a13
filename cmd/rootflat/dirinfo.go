package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/rootflat/pkg/errors"
	"github.com/ajitpratap0/rootflat/pkg/rootio"
)

func newDirInfoCmd() *cobra.Command {
	var keysBytes, nameBytes, keysSeek int32
	var name string
	var decode bool

	cmd := &cobra.Command{
		Use:   "dirinfo [hex]",
		Short: "Encode or decode a ROOT directory record",
		Long: `Encode prints the two packed groups of a directory record as hex, followed by
the full record with the optional name between them.

With --decode, the argument is a full record in hex (first group, name,
second group) and the decoded fields are printed.

Example:
  rootflat dirinfo --keys-bytes 10 --name-bytes 20 --keys-seek 1234`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if decode {
				if len(args) != 1 {
					return errors.New(errors.ErrorTypeValidation, "--decode needs a hex record argument")
				}
				return decodeDirInfo(cmd, args[0])
			}

			d := rootio.NewDirectoryInfo(keysBytes, nameBytes, keysSeek)
			first, err := d.First().Bytes()
			if err != nil {
				return err
			}
			second, err := d.Second().Bytes()
			if err != nil {
				return err
			}
			full, err := d.Encode([]byte(name))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "first:  %s %v\n", hex.EncodeToString(first), d.First().Values)
			fmt.Fprintf(out, "second: %s %v\n", hex.EncodeToString(second), d.Second().Values)
			fmt.Fprintf(out, "record: %s\n", hex.EncodeToString(full))
			return nil
		},
	}

	f := cmd.Flags()
	f.Int32Var(&keysBytes, "keys-bytes", 0, "Byte size of the keys list")
	f.Int32Var(&nameBytes, "name-bytes", 0, "Byte size of the name/title block")
	f.Int32Var(&keysSeek, "keys-seek", 0, "File offset of the keys list")
	f.StringVar(&name, "name", "", "Name bytes written between the two groups")
	f.BoolVar(&decode, "decode", false, "Decode a hex record instead of encoding")
	return cmd
}

func decodeDirInfo(cmd *cobra.Command, arg string) error {
	raw, err := hex.DecodeString(arg)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, "record is not valid hex")
	}
	firstSize, _ := rootio.DirectoryFirstLayout.Size()
	secondSize, _ := rootio.DirectorySecondLayout.Size()
	if len(raw) < firstSize+secondSize {
		return errors.Newf(errors.ErrorTypeEncoding, "record has %d bytes, need at least %d", len(raw), firstSize+secondSize)
	}

	d, err := rootio.ReadDirectoryInfo(raw[:firstSize], raw[len(raw)-secondSize:])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "version=%d created=%d modified=%d keys_bytes=%d name_bytes=%d\n",
		d.Version(), d.CreatedTime(), d.ModifiedTime(), d.KeysByteSize(), d.NameByteSize())
	fmt.Fprintf(out, "self_seek=%d parent_seek=%d keys_seek=%d name=%q\n",
		d.SelfSeek(), d.ParentSeek(), d.KeysSeek(), string(raw[firstSize:len(raw)-secondSize]))
	return nil
}
