package convert_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unbound-force/pest2phpunit/internal/convert"
	"github.com/unbound-force/pest2phpunit/internal/phpast"
)

func convertSource(t *testing.T, src string, mutate ...func(*convert.Options)) *convert.Result {
	t.Helper()
	opts := convert.DefaultOptions()
	for _, m := range mutate {
		m(&opts)
	}
	res, err := convert.File("tests/Unit/ExampleTest.php", []byte(src), opts)
	require.NoError(t, err)
	return res
}

// assertContainsCode checks that the output contains want, ignoring
// whitespace.
func assertContainsCode(t *testing.T, res *convert.Result, want string) {
	t.Helper()
	assert.Contains(t, phpast.Compact(res.Output), phpast.Compact(want), "output:\n%s", res.Output)
}

func messages(res *convert.Result) []string {
	var out []string
	for _, m := range res.Markers {
		out = append(out, m.Message)
	}
	return out
}

const basicSuite = `<?php

use App\Models\User;

beforeEach(function () {
    $this->user = new User();
});

it('has a name', function () {
    expect($this->user->name)->toBe('Bob');
});

test('sums', function (int $a, int $b, int $sum) {
    expect($a + $b)->toBe($sum);
})->with([
    [1, 2, 3],
    [2, 2, 4],
]);
`

func TestFile_BasicSuite(t *testing.T) {
	res := convertSource(t, basicSuite)

	assert.True(t, res.Converted)
	assert.True(t, res.Clean(), "markers: %v leaks: %v", res.Markers, res.Leaks)
	assert.Equal(t, "ExampleTest", res.Class)
	assert.Equal(t, []string{"setUp"}, res.Hooks)
	assert.Equal(t, []string{"provideSums"}, res.Providers)
	require.Len(t, res.Tests, 2)
	assert.Equal(t, convert.Test{Description: "it has a name", Method: "test_it_has_a_name", Line: 9}, res.Tests[0])
	assert.Equal(t, "test_sums", res.Tests[1].Method)

	assert.True(t, strings.HasPrefix(res.Output, "<?php\n\n"))
	assertContainsCode(t, res, `use App\Models\User;
use PHPUnit\Framework\Attributes\DataProvider;
use PHPUnit\Framework\TestCase;`)
	assertContainsCode(t, res, "class ExampleTest extends TestCase {")
	assertContainsCode(t, res, `protected function setUp(): void {
        parent::setUp();
        $this->user = new User();
    }`)
	assertContainsCode(t, res, `public function test_it_has_a_name(): void {
        $this->assertSame('Bob', $this->user->name);
    }`)
	assertContainsCode(t, res, `#[DataProvider('provideSums')]
    public function test_sums(int $a, int $b, int $sum): void {
        $this->assertSame($sum, $a + $b);
    }`)
	assertContainsCode(t, res, `public static function provideSums(): array {
        return [
            [1, 2, 3],
            [2, 2, 4],
        ];
    }`)
}

func TestFile_NotPest(t *testing.T) {
	src := "<?php\n\nclass Money {}\n"
	res := convertSource(t, src)
	assert.False(t, res.Converted)
	assert.Equal(t, src, res.Output)
	assert.Empty(t, res.Tests)
	assert.True(t, res.Clean())
}

func TestFile_ParseError(t *testing.T) {
	_, err := convert.File("tests/Broken.php", []byte("<?php test('x', function () {"), convert.DefaultOptions())
	var pe *phpast.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "tests/Broken.php", pe.Path)
}

func TestFile_Namespace(t *testing.T) {
	src := "<?php\n\nnamespace Tests\\Unit;\n\ntest('a', function () {\n    expect(true)->toBeTrue();\n});\n"
	res := convertSource(t, src, func(o *convert.Options) { o.Namespace = `Ignored\Here` })
	assertContainsCode(t, res, `namespace Tests\Unit;`)
	assert.NotContains(t, res.Output, "Ignored")

	bare := convertSource(t, "<?php\ntest('a', function () {});\n", func(o *convert.Options) { o.Namespace = `Tests\Feature` })
	assertContainsCode(t, bare, `namespace Tests\Feature;`)
}

func TestFile_FinalAndCamelCase(t *testing.T) {
	res := convertSource(t, "<?php\nit('works fine', function () {});\n", func(o *convert.Options) {
		o.Final = true
		o.MethodStyle = convert.CamelCase
	})
	assertContainsCode(t, res, "final class ExampleTest extends TestCase")
	assertContainsCode(t, res, "public function testItWorksFine(): void")
}

func TestFile_DuplicateDescriptions(t *testing.T) {
	res := convertSource(t, "<?php\ntest('same', function () {});\ntest('same', function () {});\n")
	require.Len(t, res.Tests, 2)
	assert.Equal(t, "test_same", res.Tests[0].Method)
	assert.Equal(t, "test_same_2", res.Tests[1].Method)
}

func TestFile_Describe(t *testing.T) {
	src := `<?php

describe('cart', function () {
    beforeEach(function () {
        $this->cart = new Cart();
    });

    afterEach(function () {
        $this->cart->clear();
    });

    describe('when empty', function () {
        beforeEach(function () {
            $this->cart->reset();
        });

        it('has no total', function () {
            expect($this->cart->total())->toBe(0);
        });
    });
})->group('shop');
`
	res := convertSource(t, src)
	require.Len(t, res.Tests, 1)
	assert.Equal(t, "cart when empty it has no total", res.Tests[0].Description)
	assert.Equal(t, "test_cart_when_empty_it_has_no_total", res.Tests[0].Method)
	assert.Empty(t, res.Hooks, "describe hooks are inlined")
	assertContainsCode(t, res, `#[Group('shop')]
    public function test_cart_when_empty_it_has_no_total(): void {
        $this->cart = new Cart();
        $this->cart->reset();
        $this->assertSame(0, $this->cart->total());
        $this->cart->clear();
    }`)
	assertContainsCode(t, res, `use PHPUnit\Framework\Attributes\Group;`)
}

func TestFile_Uses(t *testing.T) {
	src := `<?php

use Tests\TestCase;
use Illuminate\Foundation\Testing\RefreshDatabase;

uses(TestCase::class, RefreshDatabase::class);

test('a', function () {});
`
	res := convertSource(t, src)
	assertContainsCode(t, res, "class ExampleTest extends TestCase {\n    use RefreshDatabase;")
	assert.NotContains(t, res.Output, `PHPUnit\Framework\TestCase`)
	assert.Equal(t, 1, strings.Count(res.Output, `use Tests\TestCase;`))
}

func TestFile_StaticHooks(t *testing.T) {
	src := `<?php

beforeAll(function () {
    Cache::flush();
});

afterAll(function () {
    $this->db->close();
});

test('a', function () {});
`
	res := convertSource(t, src)
	assert.Equal(t, []string{"setUpBeforeClass", "tearDownAfterClass"}, res.Hooks)
	assertContainsCode(t, res, `public static function setUpBeforeClass(): void {
        parent::setUpBeforeClass();
        Cache::flush();
    }`)
	assertContainsCode(t, res, `public static function tearDownAfterClass(): void {
        $this->db->close();
        parent::tearDownAfterClass();
    }`)
	assert.Contains(t, messages(res), "afterAll() uses $this, which is not available in the static tearDownAfterClass()")
}

func TestFile_Modifiers(t *testing.T) {
	src := `<?php

test('throws', function () {
    throw new RuntimeException('boom');
})->throws(RuntimeException::class, 'boom');

test('message only', function () {})->throws('Something failed');

test('skipped', function () {})->skip('not today');

test('windows only', function () {})->onlyOnWindows();

test('later')->todo();

test('focus', function () {})->only();
`
	res := convertSource(t, src)
	assertContainsCode(t, res, `public function test_throws(): void {
        $this->expectException(RuntimeException::class);
        $this->expectExceptionMessage('boom');
        throw new RuntimeException('boom');
    }`)
	assertContainsCode(t, res, `$this->expectExceptionMessage('Something failed');`)
	assertContainsCode(t, res, `$this->markTestSkipped('not today');`)
	assertContainsCode(t, res, `if (!(PHP_OS_FAMILY === 'Windows')) { $this->markTestSkipped('Runs on Windows only'); }`)
	assertContainsCode(t, res, `public function test_later(): void {
        $this->markTestIncomplete();
    }`)

	require.Len(t, res.Markers, 1)
	assert.Equal(t, "test_focus", res.Markers[0].Method)
	assert.Equal(t, "test modifier only() has no PHPUnit equivalent", res.Markers[0].Message)
	for _, tc := range res.Tests {
		want := 0
		if tc.Method == "test_focus" {
			want = 1
		}
		assert.Equal(t, want, tc.Markers, tc.Method)
	}
}

func TestFile_Depends(t *testing.T) {
	src := `<?php

test('first', function () {});
test('second', function () {})->depends('first', 'missing');
`
	res := convertSource(t, src)
	assertContainsCode(t, res, `#[Depends('test_first')]
    public function test_second(): void`)
	assert.Equal(t, []string{"depends('missing') does not name a test in this file"}, messages(res))
}

func TestFile_SharedDatasets(t *testing.T) {
	src := `<?php

dataset('emails', ['a@b.c', 'x@y.z']);

test('valid', function (string $email) {
    expect($email)->toContain('@');
})->with('emails');

test('also valid', function (string $email) {})->with('emails');

test('generated', function ($n) {})->with(fn () => range(1, 3));

test('unknown', function ($n) {})->with('nope');
`
	res := convertSource(t, src)
	assert.Equal(t, []string{"provideEmails", "provideGenerated"}, res.Providers)
	assert.Equal(t, 2, strings.Count(res.Output, "#[DataProvider('provideEmails')]"))
	assertContainsCode(t, res, `public static function provideEmails(): array {
        return [
            ['a@b.c'],
            ['x@y.z'],
        ];
    }`)
	assertContainsCode(t, res, `foreach ((fn () => range(1, 3))() as $key => $row) {
            yield $key => is_array($row) ? $row : [$row];
        }`)
	assert.Equal(t, []string{"dataset 'nope' is not defined in this file"}, messages(res))
}

func TestFile_Covers(t *testing.T) {
	src := `<?php

covers(Money::class);

test('a', function () {})->covers(Money::class);
`
	res := convertSource(t, src)
	assert.Equal(t, 1, strings.Count(res.Output, "#[CoversClass(Money::class)]"))
	assertContainsCode(t, res, "#[CoversClass(Money::class)]\nclass ExampleTest")
	assertContainsCode(t, res, `use PHPUnit\Framework\Attributes\CoversClass;`)
}

func TestFile_CustomExpectations(t *testing.T) {
	src := `<?php

expect()->extend('toBeOne', function () {
    return $this->toBe(1);
});

test('one', function () {
    expect($n)->toBeOne();
    expect($m)->not->toBeOne();
});
`
	res := convertSource(t, src)
	assert.Equal(t, []string{"toBeOne"}, res.CustomExpectations)
	assert.True(t, res.Clean(), "markers: %v leaks: %v", res.Markers, res.Leaks)
	assert.NotContains(t, res.Output, "extend(")
	assertContainsCode(t, res, `$this->assertSame(1, $n);
        $this->assertNotSame(1, $m);`)
}

func TestFile_Leaks(t *testing.T) {
	src := `<?php

test('maps', function () {
    array_map(fn ($x) => expect($x)->toBeInt(), [1, 2]);
});
`
	res := convertSource(t, src)
	require.Len(t, res.Leaks, 1)
	assert.Equal(t, "test_maps", res.Leaks[0].Method)
	assert.Equal(t, "expect", res.Leaks[0].Call)
	assert.Contains(t, res.Leaks[0].Code, "array_map(")
	assert.False(t, res.Clean())
}

func TestFile_CapturedVariables(t *testing.T) {
	src := `<?php

$rate = 3;

test('rate', function () use ($rate) {
    expect($rate)->toBe(3);
});
`
	res := convertSource(t, src)
	assert.Equal(t, []string{"variables captured with use() are not available in a test method"}, messages(res))
	assertContainsCode(t, res, "$rate = 3;\n\nclass ExampleTest")
}

func TestFile_KeepsComments(t *testing.T) {
	src := `<?php

/**
 * Covers the happy path.
 */
test('a', function () {
    // arrange
    $x = 1;

    // assert
    expect($x)->toBe(1);
    // done
});
`
	res := convertSource(t, src)
	assertContainsCode(t, res, `/**
     * Covers the happy path.
     */
    public function test_a(): void {
        // arrange
        $x = 1;
        // assert
        $this->assertSame(1, $x);
        // done
    }`)
}

func TestFile_CommentedCallsAreConverted(t *testing.T) {
	src := `<?php

test('a', function () {
    $x = 1;
    // assert the value
    expect($x)->toBe(1);
});

// a second test
it('b', function () {
    expect(true)->toBeTrue();
});
`
	res := convertSource(t, src)
	assert.Empty(t, res.Leaks)
	require.Len(t, res.Tests, 2)
	assert.Equal(t, "test_b", res.Tests[1].Method)
	assertContainsCode(t, res, `// assert the value
        $this->assertSame(1, $x);`)
	assertContainsCode(t, res, `// a second test
    public function test_b(): void {`)
	assert.NotContains(t, res.Output, "it('b'")
	assert.NotContains(t, res.Output, "expect(")
}

func TestFile_LeakExcerptKeepsRunes(t *testing.T) {
	src := "<?php\n\ntest('maps', function () {\n    array_map(fn ($x) => expect($x)->toBe('" +
		strings.Repeat("é", 100) + "'), [1]);\n});\n"
	res := convertSource(t, src)
	require.Len(t, res.Leaks, 1)
	code := res.Leaks[0].Code
	assert.True(t, utf8.ValidString(code), code)
	assert.True(t, strings.HasSuffix(code, "..."), code)
	assert.Equal(t, 80, utf8.RuneCountInString(code))
}

func TestFile_MarkerLinesPointIntoOutput(t *testing.T) {
	res := convertSource(t, "<?php\ntest('focus', function () {})->only();\n")
	require.Len(t, res.Markers, 1)
	lines := strings.Split(res.Output, "\n")
	require.Less(t, res.Markers[0].Line-1, len(lines))
	assert.Contains(t, lines[res.Markers[0].Line-1], phpast.MarkerPrefix)
}
